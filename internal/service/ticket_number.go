package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ticketNumberPrefix = "MCB"

// GenerateTicketNumber returns MCB-<unix millis>-<6 hex chars>. Collisions are
// left to the store's uniqueness check.
func GenerateTicketNumber() string {
	return formatTicketNumber(time.Now(), uuid.New())
}

func formatTicketNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ReplaceAll(id.String(), "-", "")[:6]
	return fmt.Sprintf("%s-%d-%s", ticketNumberPrefix, at.UnixMilli(), suffix)
}
