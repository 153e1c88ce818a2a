package processors

import (
	"fmt"
	"strings"
)

// BuildVisualText wraps OCR output for one frame into the text persisted on
// a visual chunk. A frame with no recognized text still yields a chunk so the
// corpus keeps temporal coverage of the video; frames are never dropped.
func BuildVisualText(timestampSec float64, recognized string) string {
	recognized = strings.TrimSpace(recognized)
	if recognized == "" {
		recognized = "(no on-screen text detected)"
	}
	return fmt.Sprintf("[Frame at %gs]\nOCR text: %s", timestampSec, recognized)
}
