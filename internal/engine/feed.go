package engine

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-valentine/internal/config"
	"github.com/teambition/rrule-go"
)

// uidNamespace scopes the UUIDv5 event identifiers to this application.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(config.AppURL))

// Occurrences lists count consecutive Feb 14 midnights starting at from,
// which must itself be a resolved target. The location of from is kept.
func Occurrences(from time.Time, count int) ([]time.Time, error) {
	if from.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrZeroInstant)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrOccurrenceCount)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.YEARLY,
		Dtstart:    from,
		Count:      count,
		Bymonth:    []int{int(config.TargetMonth)},
		Bymonthday: []int{config.TargetDay},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRRule, err)
	}
	return rule.All(), nil
}

// EventUID is the stable identifier of the occurrence in year for zone.
func EventUID(year int, zone string) string {
	input := fmt.Sprintf(config.FormatUIDInput, config.AppURL, year, zone)
	return fmt.Sprintf(config.FormatUID, uuid.NewSHA1(uidNamespace, []byte(input)), config.ICalDomain)
}

// buildFeed encodes one all-day event per occurrence.
func buildFeed(now time.Time, occurrences []time.Time, summary, reminderTrigger string) ([]byte, error) {
	if len(occurrences) == 0 {
		return nil, errors.New(config.ErrOccurrenceCount)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, occ := range occurrences {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, EventUID(occ.Year(), occ.Location().String()))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropTransp, config.ICalTransparent)
		event.Props.Set(dtStampProp)

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(occ)
		event.Props.Set(dtStartProp)

		if reminderTrigger != "" {
			addAlarm(event, reminderTrigger, summary)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the value directly: SetText would add VALUE=TEXT.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
