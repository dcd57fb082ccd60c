package storygen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/llm"
	"github.com/nikhilbhutani/sketchstories/internal/llm/mocks"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

func catInMeadow() *vision.Analysis {
	return &vision.Analysis{
		Objects: []vision.Object{
			{Name: "cat", Confidence: 0.9},
			{Name: "tree", Confidence: 0.8},
			{Name: "cat", Confidence: 0.75},
		},
		Scene: vision.SceneInfo{Type: vision.SceneNature},
		Colors: vision.ColorInfo{
			Dominant: []vision.DominantColor{{Name: "white"}, {Name: "green"}, {Name: "sky blue"}},
			Mood:     vision.ColorMood{Mood: "peaceful"},
		},
	}
}

func descriptions(effects []guardrails.DraftEffect) []string {
	out := make([]string, len(effects))
	for i, e := range effects {
		out[i] = *e.Description
	}
	return out
}

func sections(d guardrails.Draft) [][2]string {
	out := make([][2]string, len(d.Narrative))
	for i, s := range d.Narrative {
		out[i] = [2]string{s.Type, *s.Content}
	}
	return out
}

func TestPromptVars(t *testing.T) {
	vars := promptVars(Request{Analysis: catInMeadow(), AgeGroup: guardrails.AgePreschool})
	assert.Equal(t, map[string]string{
		"style":     "bedtime",
		"age_group": "3-5",
		"scene":     "nature",
		"objects":   "cat, tree",
		"colors":    "green, sky blue",
		"mood":      "peaceful",
		"idea":      "none, surprise them",
	}, vars)

	vars = promptVars(Request{AgeGroup: guardrails.AgeMiddle, Idea: " a flying boat ", Style: "funny"})
	assert.Equal(t, "general", vars["scene"])
	assert.Equal(t, "none", vars["objects"])
	assert.Equal(t, "balanced", vars["mood"])
	assert.Equal(t, "a flying boat", vars["idea"])
	assert.Equal(t, "funny", vars["style"])

	_, err := storyPrompt.Render(vars)
	require.NoError(t, err)
}

func TestSuggestEffects(t *testing.T) {
	sounds, anims := SuggestEffects("The bird laughed under the moon.", nil)
	assert.Equal(t, []string{"gentle music", "birds chirping", "children giggling", "soft lullaby"}, descriptions(sounds))
	assert.Equal(t, []string{"gentle movement", "floating across the sky"}, descriptions(anims))

	sounds, anims = SuggestEffects("A quiet day.", &vision.Analysis{
		Scene:  vision.SceneInfo{Type: vision.SceneNature},
		Colors: vision.ColorInfo{Mood: vision.ColorMood{Mood: "cheerful"}},
	})
	assert.Equal(t, []string{"gentle music", "birds chirping", "gentle breeze"}, descriptions(sounds))
	assert.Equal(t, []string{"gentle movement", "twinkling sparkles"}, descriptions(anims))
}

func TestStructure(t *testing.T) {
	d, err := Structure("The cat smiled. It found a friend! They played. The end came.", nil)
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"introduction", "The cat smiled. It found a friend!"},
		{"main", "They played."},
		{"conclusion", "The end came."},
	}, sections(d))
	assert.Equal(t, "gentle music", *d.SoundEffects[0].Description)

	d, err = Structure("Two friends. One tree.", nil)
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"introduction", "Two friends."}, {"conclusion", "One tree."}}, sections(d))

	d, err = Structure("a single line without a stop", nil)
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"main", "a single line without a stop"}}, sections(d))

	_, err = Structure("  \n ", nil)
	assert.ErrorIs(t, err, ErrEmptyStory)
}

func TestParseStory(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		content := "```json\n" + `{"narrative":[{"type":"main","content":"Hi."}],"sound_effects":[],"animations":[{"type":"character","description":"wave","timing":"end"}]}` + "\n```"
		d, err := parseStory(content, nil)
		require.NoError(t, err)
		assert.Equal(t, [][2]string{{"main", "Hi."}}, sections(d))
		assert.Empty(t, d.SoundEffects)
		assert.Equal(t, []string{"wave"}, descriptions(d.Animations))
	})

	t.Run("missing effects are suggested", func(t *testing.T) {
		d, err := parseStory(`{"narrative":[{"type":"main","content":"It rained."}]}`, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"gentle music", "soft rain"}, descriptions(d.SoundEffects))
		assert.Equal(t, []string{"gentle movement"}, descriptions(d.Animations))
	})

	t.Run("missing content survives for validation", func(t *testing.T) {
		d, err := parseStory(`{"narrative":[{"type":"main"}],"sound_effects":[],"animations":[]}`, nil)
		require.NoError(t, err)
		assert.Nil(t, d.Narrative[0].Content)
	})

	t.Run("empty narrative", func(t *testing.T) {
		_, err := parseStory(`{"narrative":[]}`, nil)
		assert.ErrorIs(t, err, ErrEmptyStory)
	})

	t.Run("prose", func(t *testing.T) {
		d, err := parseStory("{oops} The fox smiled. The end.", nil)
		require.NoError(t, err)
		assert.Equal(t, [][2]string{{"introduction", "{oops} The fox smiled."}, {"conclusion", "The end."}}, sections(d))
	})
}

func TestLLMGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)

	gw.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			assert.Equal(t, "anthropic", req.Provider)
			assert.Equal(t, "claude-3-5-haiku-20241022", req.Model)
			assert.True(t, req.JSON)
			assert.Equal(t, 600, req.MaxTokens)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			user := req.Messages[1].Content
			assert.Contains(t, user, "child aged 3-5 years")
			assert.Contains(t, user, "Scene: nature")
			assert.Contains(t, user, "Things in the drawing: cat, tree")
			assert.Contains(t, user, "The child's idea: none, surprise them")
			assert.NotContains(t, user, "{{")
			return &llm.ChatResponse{Content: `{"narrative":[{"type":"main","content":"The cat was kind."}],"sound_effects":[],"animations":[]}`}, nil
		})

	g := NewLLMGenerator(gw, config.StoryConfig{Provider: "anthropic", Model: "claude-3-5-haiku-20241022"})
	assert.Equal(t, "llm", g.Name())

	d, err := g.Generate(context.Background(), Request{Analysis: catInMeadow(), AgeGroup: guardrails.AgePreschool})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"main", "The cat was kind."}}, sections(d))
}

func TestLLMGeneratorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	gw.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := NewLLMGenerator(gw, config.StoryConfig{}).Generate(context.Background(), Request{AgeGroup: guardrails.AgeEarly})
	assert.EqualError(t, err, "generate story: boom")
}

func TestTemplateGeneratorPassesValidation(t *testing.T) {
	lex, err := guardrails.DefaultLexicon()
	require.NoError(t, err)
	v, err := guardrails.NewStoryValidator(guardrails.NewContentFilter(lex))
	require.NoError(t, err)

	g := NewTemplateGenerator()
	requests := map[string]Request{
		"analysis": {Analysis: catInMeadow()},
		"no analysis": {},
		"indoor": {Analysis: &vision.Analysis{
			Objects: []vision.Object{{Name: "dog"}},
			Scene:   vision.SceneInfo{Type: vision.SceneIndoor},
		}},
	}

	for name, req := range requests {
		for _, age := range guardrails.AgeGroups() {
			t.Run(name+"/"+age.String(), func(t *testing.T) {
				req.AgeGroup = age
				d, err := g.Generate(context.Background(), req)
				require.NoError(t, err)

				res := v.ValidateStory(d, age)
				require.True(t, res.IsSafe)
				for i, sec := range res.ModifiedContent.Narrative {
					assert.Equal(t, *d.Narrative[i].Content, sec.Content, "section %s was filtered", sec.Type)
				}
			})
		}
	}
}

func TestTemplateGeneratorText(t *testing.T) {
	d, err := NewTemplateGenerator().Generate(context.Background(), Request{
		Analysis: catInMeadow(),
		Idea:     "a picnic with cake!",
	})
	require.NoError(t, err)

	assert.Equal(t, "Once upon a time, in a sunny meadow, there lived a kind green cat who loved adventure.", *d.Narrative[0].Content)
	assert.True(t, strings.HasSuffix(*d.Narrative[1].Content, "On the way they imagined a picnic with cake."))
	assert.Contains(t, *d.Narrative[2].Content, "the green cat and the tree were happy")

	again, err := NewTemplateGenerator().Generate(context.Background(), Request{Analysis: catInMeadow(), Idea: "a picnic with cake!"})
	require.NoError(t, err)
	assert.Equal(t, sections(d), sections(again))
}
