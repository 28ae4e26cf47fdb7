package prayer

import (
	"fmt"
	"time"

	"namozvaqti/internal/models"
)

const reportTemplate = `Namoz Vaqtlari:
=========================
📍 《 🌇 %s 》 vaqti bilan
--------------------------------------------
🌍  Hijri oy: - %s
📅  %s oyining %s - kuni

🌑  Tong - saharlik:  - %s
🌞  Quyosh chiqishi: - %s

🕰  Bomdod:    -    %s
🕰  Peshin:      -    %s
🕰  Asr:            -    %s
🕰  Shom:          -    %s
🕰  Xufton:    -    %s

📅 %s - yil | Oyning %s - kuni | %s | Vaqt - %s
`

// Render formats report as the chat message. now is the render time shown in the footer.
// Bomdod is shown with the tong saharlik time.
func Render(report *models.PrayerTimesReport, now time.Time) string {
	return fmt.Sprintf(reportTemplate,
		report.City,
		report.HijriMonth,
		report.HijriMonth, report.HijriDay,
		report.TongSaharlik,
		report.Quyosh,
		report.TongSaharlik,
		report.Peshin,
		report.Asr,
		report.ShomIftor,
		report.Hufton,
		report.Year(), report.Month(), report.Weekday, now.Format("15:04"),
	)
}
