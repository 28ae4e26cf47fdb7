package models

import "time"

// UserPreference is one row of the users table: the last chosen city and the daily opt-in flag.
type UserPreference struct {
	UserID      int64     `json:"user_id"`
	City        string    `json:"city"`
	DailyNotify bool      `json:"daily_notify"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PrayerTimesReport is the parsed result of a single prayer-times lookup. It is never persisted.
type PrayerTimesReport struct {
	City         string `json:"city"`
	HijriMonth   string `json:"hijri_month"`
	HijriDay     string `json:"hijri_day"`
	TongSaharlik string `json:"tong_saharlik"`
	Quyosh       string `json:"quyosh"`
	Peshin       string `json:"peshin"`
	Asr          string `json:"asr"`
	ShomIftor    string `json:"shom_iftor"`
	Hufton       string `json:"hufton"`
	Date         string `json:"date"`
	Weekday      string `json:"weekday"`
}

// Year returns the Gregorian year part of Date (YYYY-MM-DD...).
func (r *PrayerTimesReport) Year() string {
	if len(r.Date) < 4 {
		return ""
	}
	return r.Date[:4]
}

// Month returns the Gregorian month part of Date.
func (r *PrayerTimesReport) Month() string {
	if len(r.Date) < 7 {
		return ""
	}
	return r.Date[5:7]
}

// UserStats is the aggregate shown by /api/v1/stats.
type UserStats struct {
	Users   int `json:"users"`
	OptedIn int `json:"opted_in"`
}
