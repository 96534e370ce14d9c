package extract

import (
	"regexp"
	"strings"

	"github.com/vanshika/momoledger/internal/domain"
)

var (
	// Sender: "from John Clive (*256700000001)". Identifier may be masked with '*'.
	senderPattern = regexp.MustCompile(`(?i)from ([A-Za-z\s]+) \(([*\d]+)\)`)

	// Receiver layouts, tried in order. Only the first match is used.
	receiverPatterns = []*regexp.Regexp{
		// "to Jane Smith 256700000002", "to Jane Smith (256700000002)"
		regexp.MustCompile(`(?i)to ([A-Za-z\s]+?) ?\(?(\d+)\)?`),
		// "to Shop_2 Kigali (250788000000)"
		regexp.MustCompile(`to ([\w\s]+) \((\d+)\)`),
	}
)

// Participants extracts up to one sender and one receiver from a message body,
// sender first. UserID is left zero for the identity resolver to fill in.
func Participants(body string) []domain.Participant {
	var participants []domain.Participant

	if m := senderPattern.FindStringSubmatch(body); m != nil {
		participants = append(participants, domain.Participant{
			Name:        strings.TrimSpace(m[1]),
			PhoneNumber: strings.TrimSpace(m[2]),
			UserType:    domain.RoleSender,
		})
	}

	for _, pattern := range receiverPatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		participants = append(participants, domain.Participant{
			Name:        strings.TrimSpace(m[1]),
			PhoneNumber: strings.TrimSpace(m[2]),
			UserType:    domain.RoleReceiver,
		})
		break
	}

	return participants
}
