package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleProvider struct {
	service *calendar.Service
}

// NewGoogleProvider builds a provider from an oauth2-authorized HTTP client.
func NewGoogleProvider(ctx context.Context, client *http.Client) (*GoogleProvider, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleProvider{service: service}, nil
}

func (g *GoogleProvider) CreateEvent(ctx context.Context, calendarID string, ev *RemoteEvent) (string, error) {
	created, err := g.service.Events.Insert(calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create remote event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleProvider) UpdateEvent(ctx context.Context, calendarID, eventID string, ev *RemoteEvent) error {
	_, err := g.service.Events.Update(calendarID, eventID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update remote event: %w", err)
	}
	return nil
}

func (g *GoogleProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete remote event: %w", err)
	}
	return nil
}

func (g *GoogleProvider) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*RemoteEvent, error) {
	events, err := g.service.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list remote events: %w", err)
	}

	result := make([]*RemoteEvent, 0, len(events.Items))
	for _, item := range events.Items {
		start, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		end, _ := time.Parse(time.RFC3339, item.End.DateTime)

		var attendees []string
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		result = append(result, &RemoteEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Start:       start,
			End:         end,
			Status:      item.Status,
			Attendees:   attendees,
		})
	}

	return result, nil
}

func toGoogleEvent(ev *RemoteEvent) *calendar.Event {
	ge := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
		},
		Status: ev.Status,
	}
	for _, email := range ev.Attendees {
		ge.Attendees = append(ge.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ge
}
