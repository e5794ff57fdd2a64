package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/commerce-policy/internal/domain/event"
	"github.com/example/commerce-policy/internal/domain/order"
)

// ConvertFromKinesisRecord converts a Kinesis record carrying a change to the
// orders table (DynamoDB Streams format) into an order event.
// It returns nil, nil for changes that announce nothing.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*event.Event, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(dynamoDBRecord)
}

// ConvertFromDynamoDBStreamRecord maps an INSERT to OrderPlaced and a MODIFY
// that changed status to the matching status event. Everything else,
// REMOVE included, yields nil.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*event.Event, error) {
	switch record.EventName {
	case "INSERT":
		o, err := orderFromImage(record.Change.NewImage)
		if err != nil {
			return nil, err
		}
		return newEvent(record.EventID, o, order.EventOrderPlaced, order.OrderPlaced{
			OrderID:       o.ID,
			Number:        o.Number,
			CustomerID:    o.CustomerID,
			CustomerEmail: o.CustomerEmail,
			Items:         o.Items,
			Totals:        o.Totals,
			PromoCode:     o.PromoCode,
			PlacedAt:      o.CreatedAt,
		})
	case "MODIFY":
		o, err := orderFromImage(record.Change.NewImage)
		if err != nil {
			return nil, err
		}
		from := order.Status(stringAttr(record.Change.OldImage, "status"))
		if from == o.Status {
			return nil, nil
		}
		return newEvent(record.EventID, o, order.EventTypeFor(o.Status), order.StatusChanged{
			OrderID:       o.ID,
			Number:        o.Number,
			CustomerID:    o.CustomerID,
			CustomerEmail: o.CustomerEmail,
			From:          from,
			To:            o.Status,
			ChangedAt:     o.UpdatedAt,
		})
	default:
		return nil, nil
	}
}

func newEvent(recordID string, o *order.Order, eventType string, payload any) (*event.Event, error) {
	evt, err := event.New(o.ID, order.AggregateType, eventType, o.Version, payload)
	if err != nil {
		return nil, err
	}
	// the stream record id is stable across redeliveries
	if recordID != "" {
		evt.ID = recordID
	}
	evt.Timestamp = o.UpdatedAt
	return &evt, nil
}

func stringAttr(image map[string]events.DynamoDBAttributeValue, name string) string {
	v, ok := image[name]
	if !ok || v.DataType() != events.DataTypeString {
		return ""
	}
	return v.String()
}

// orderFromImage rebuilds an order from the item layout written by the
// DynamoDB order store.
func orderFromImage(image map[string]events.DynamoDBAttributeValue) (*order.Order, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	o := &order.Order{
		ID:            stringAttr(image, "order_id"),
		Number:        stringAttr(image, "number"),
		CustomerID:    stringAttr(image, "customer_id"),
		CustomerEmail: stringAttr(image, "customer_email"),
		PromoCode:     stringAttr(image, "promo_code"),
		Status:        order.Status(stringAttr(image, "status")),
	}
	if o.ID == "" || o.Status == "" {
		return nil, fmt.Errorf("missing required fields: order_id=%q, status=%q", o.ID, o.Status)
	}

	if raw := stringAttr(image, "items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &o.Items); err != nil {
			return nil, fmt.Errorf("failed to parse items: %w", err)
		}
	}
	if raw := stringAttr(image, "totals"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &o.Totals); err != nil {
			return nil, fmt.Errorf("failed to parse totals: %w", err)
		}
	}
	for _, field := range []struct {
		name string
		dst  *time.Time
	}{
		{"created_at", &o.CreatedAt},
		{"updated_at", &o.UpdatedAt},
	} {
		raw := stringAttr(image, field.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", field.name, err)
		}
		*field.dst = t
	}
	if v, ok := image["version"]; ok && v.DataType() == events.DataTypeNumber {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		o.Version = int(version)
	}
	return o, nil
}

// BatchConvertFromKinesisEvent converts all records of a Kinesis event.
// Returns successfully converted events and any errors encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*event.Event, []error) {
	var eventList []*event.Event
	var errs []error

	for _, record := range kinesisEvent.Records {
		evt, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if evt != nil {
			eventList = append(eventList, evt)
		}
	}

	return eventList, errs
}
