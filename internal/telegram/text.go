package telegram

import (
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/storygen"
)

const (
	startText = "Hello! Send me a photo of a drawing and I'll tell you a story about it.\n" +
		"Add a caption to give me an idea for the story.\n" +
		"Use /age to pick who the story is for."
	helpText = "Send a photo of a drawing to get a story.\n" +
		"/age 3-5, /age 6-8 or /age 9-12 sets the listener's age.\n" +
		"/age shows the current setting."
	hintText  = "Send me a photo of a drawing and I'll tell you a story!"
	sorryText = "Oops, something went wrong. Please try again in a little while."
)

// formatStory renders the validated narrative as chat text.
func formatStory(res *storygen.Result) string {
	var sb strings.Builder
	for i, sec := range res.Story.Narrative {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(sec.Content)
	}
	if res.NarrationURL != "" {
		sb.WriteString("\n\nListen to the story: ")
		sb.WriteString(res.NarrationURL)
	}
	return sb.String()
}
