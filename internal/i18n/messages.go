// Package i18n holds the user-facing billing copy in the locales the API
// negotiates. Keys are billing states; formatting verbs are filled by callers
// through the helper functions.
package i18n

import (
	"fmt"
	"time"

	"server/internal/domain"
)

var messages = map[string]map[domain.BillingState]string{
	"en": {
		domain.BillingActive:         "Subscription active.",
		domain.BillingTrialing:       "Trial period: %d day(s) remaining.",
		domain.BillingTrialExpired:   "Your trial ended on %s. Add a payment method to continue.",
		domain.BillingNoSubscription: "No billing record on file for this organisation. Contact support.",
	},
	"id": {
		domain.BillingActive:         "Langganan aktif.",
		domain.BillingTrialing:       "Masa uji coba: sisa %d hari.",
		domain.BillingTrialExpired:   "Masa uji coba Anda berakhir pada %s. Tambahkan metode pembayaran untuk melanjutkan.",
		domain.BillingNoSubscription: "Tidak ada data penagihan untuk organisasi ini. Hubungi dukungan.",
	},
	"es": {
		domain.BillingActive:         "Suscripción activa.",
		domain.BillingTrialing:       "Período de prueba: quedan %d día(s).",
		domain.BillingTrialExpired:   "Su período de prueba terminó el %s. Agregue un método de pago para continuar.",
		domain.BillingNoSubscription: "No hay registro de facturación para esta organización. Contacte a soporte.",
	},
}

func catalog(locale string) map[domain.BillingState]string {
	if m, ok := messages[locale]; ok {
		return m
	}
	return messages["en"]
}

// StatusMessage renders the user-facing message for a billing status.
func StatusMessage(locale string, status domain.BillingStatus) string {
	tmpl := catalog(locale)[status.State]
	switch status.State {
	case domain.BillingTrialing:
		return fmt.Sprintf(tmpl, status.DaysRemaining)
	case domain.BillingTrialExpired:
		end := ""
		if status.TrialEnd != nil {
			end = status.TrialEnd.Format(time.DateOnly)
		}
		return fmt.Sprintf(tmpl, end)
	default:
		return tmpl
	}
}
