// Package share builds messaging links for sharing a generated list. It only
// consumes record metadata; it never touches the renderer or the store.
package share

import (
	"fmt"
	"net/url"

	"github.com/solarlist/solarlist/internal/models"
)

// WhatsAppLink returns a wa.me link with a pre-filled, human-readable summary
// of the record. The recipient picks a contact; the document itself is not
// attached.
func WhatsAppLink(rec *models.ListRecord) string {
	msg := Summary(rec)
	return "https://wa.me/?text=" + url.QueryEscape(msg)
}

// Summary returns the human-readable message body for a record.
func Summary(rec *models.ListRecord) string {
	return fmt.Sprintf(
		"Lista de materiais pronta para o cliente %s.\nResponsável técnico: %s.\nItens: %d.",
		rec.ClientName, rec.TechnicianName, len(rec.Materials),
	)
}
