package risk

import (
	"sort"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// alertThreshold is the minimum score a hazard must reach to surface an alert.
const alertThreshold = 35

// DeriveAlerts projects each hazard crossing the attention threshold into an
// alert, most severe first. Output is fully recomputed each cycle; alerts
// carry no identity across cycles.
func DeriveAlerts(scores map[models.Hazard]models.RiskScore) []models.Alert {
	alerts := make([]models.Alert, 0, len(models.HazardOrder))
	for _, h := range models.HazardOrder {
		s, ok := scores[h]
		if !ok || s.Score < alertThreshold {
			continue
		}
		alerts = append(alerts, models.Alert{
			Type:     h,
			Severity: s.Level,
			Message:  s.Reasoning,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return models.SeverityRank(alerts[i].Severity) < models.SeverityRank(alerts[j].Severity)
	})
	return alerts
}
