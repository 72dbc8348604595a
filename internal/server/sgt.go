// ABOUTME: Singapore-time display formatting for API responses
// ABOUTME: Timestamps are stored in UTC; SGT fields exist only for operators

package server

import "time"

// sgtZone is fixed at UTC+8. Singapore has no daylight saving, so a fixed
// offset avoids depending on the host tzdata.
var sgtZone = time.FixedZone("SGT", 8*60*60)

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatSGT(t time.Time) string {
	return t.In(sgtZone).Format("02-Jan-2006 15:04:05") + " SGT"
}

func formatUTCPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatUTC(*t)
	return &s
}

func formatSGTPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatSGT(*t)
	return &s
}
