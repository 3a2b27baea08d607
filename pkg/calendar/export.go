package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//adzan-reminder//prayer schedule//EN"

// eventNamespace seeds deterministic UIDs so re-exporting a day replaces
// rather than duplicates events in calendar clients
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/borgmon/adzan-reminder"))

// eventLength is the block each prayer occupies in the exported calendar
const eventLength = 15 * time.Minute

// ExportSchedule writes the day's schedule for loc as an iCalendar document
func ExportSchedule(w io.Writer, loc models.Location, schedule models.DailySchedule, day time.Time) error {
	zone := ZoneFor(loc)
	day = day.In(zone)
	stamp := time.Now().UTC()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, p := range schedule {
		start := p.Time.On(day)

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, EventUID(loc, p.Name, day))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(eventLength).UTC())
		event.Props.SetText(ical.PropSummary, string(p.Name))
		if loc.Name != "" {
			event.Props.SetText(ical.PropLocation, loc.String())
		}
		event.Props.SetText(ical.PropDescription, fmt.Sprintf("%s prayer, %s", p.Name, ToHijri(day)))

		cal.Children = append(cal.Children, event.Component)
	}

	return ical.NewEncoder(w).Encode(cal)
}

// EventUID returns a stable UID for a prayer on a given day and location
func EventUID(loc models.Location, prayer models.PrayerName, day time.Time) string {
	key := fmt.Sprintf("%s/%s/%s", loc.ID, day.Format("2006-01-02"), prayer)
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
