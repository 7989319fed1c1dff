package broadcast

import (
	"fmt"

	kit "castbot/internal/transport"
)

// Payload is what a broadcast delivers: either plain text or a media
// reference. Exactly one of Text / Media is set.
type Payload struct {
	Text  string
	Media *kit.Media
}

// Summary renders the payload for operator-facing listings.
func (p Payload) Summary() string {
	if p.Media != nil {
		return fmt.Sprintf("Media: %s, Caption: %s", p.Media.Kind, p.Media.Caption)
	}
	return p.Text
}

// Report counts delivery attempts for one fan-out run.
type Report struct {
	Attempted int
	Failed    int
}
