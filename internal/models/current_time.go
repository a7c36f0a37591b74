package models

import "time"

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	Timezone     string `json:"timezone"`
}

// NewCurrentTimeModel renders t in the campus time zone.
func NewCurrentTimeModel(t time.Time) CurrentTimeModel {
	return CurrentTimeModel{
		ReadableTime: t.Format(time.RFC3339),
		Time:         t.UnixNano() / int64(time.Millisecond),
		Timezone:     t.Location().String(),
	}
}
