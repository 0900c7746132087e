package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/arturocano02/FarmDirect-sub000/templates"
	"go.uber.org/zap"
)

// Notifier sends the notifications a transition triggers. previous is nil for
// a newly created order; note is the operator's transition note, if any. The
// returned error only reports notifications that could be neither sent nor
// written to the outbox.
type Notifier interface {
	Notify(ctx context.Context, order *models.Order, previous *models.OrderStatus, current models.OrderStatus, note string) error
}

type audience string

const (
	audienceCustomer audience = "customer"
	audienceFarm     audience = "farm"
	audienceAdmin    audience = "admin"
)

type notificationRule struct {
	notificationType string
	tmplFile         string
	audience         audience
	channel          string
	subject          string // formatted with the order number
}

const triggerCreated = "created"

var notificationRules = map[string][]notificationRule{
	triggerCreated: {
		{models.TypeOrderConfirmation, "order_confirmation.html", audienceCustomer, models.ChannelEmail, "Order %s placed"},
		{models.TypeFarmNewOrder, "farm_new_order.html", audienceFarm, models.ChannelEmail, "New order %s"},
		{models.TypeFarmNewOrder, "farm_new_order_sms.txt", audienceFarm, models.ChannelSMS, ""},
		{models.TypeAdminNewOrder, "admin_new_order.html", audienceAdmin, models.ChannelEmail, "New order %s"},
	},
	string(models.StatusConfirmed): {
		{models.TypeOrderConfirmed, "order_confirmed.html", audienceCustomer, models.ChannelEmail, "Order %s confirmed"},
	},
	string(models.StatusOutForDelivery): {
		{models.TypeOutForDelivery, "order_out_for_delivery.html", audienceCustomer, models.ChannelEmail, "Order %s is out for delivery"},
	},
	string(models.StatusDelivered): {
		{models.TypeOrderDelivered, "order_delivered.html", audienceCustomer, models.ChannelEmail, "Order %s delivered"},
	},
	string(models.StatusCancelled): {
		{models.TypeOrderCancelled, "order_cancelled.html", audienceCustomer, models.ChannelEmail, "Order %s cancelled"},
		{models.TypeFarmOrderCancel, "farm_order_cancelled.html", audienceFarm, models.ChannelEmail, "Order %s cancelled"},
	},
	string(models.StatusException): {
		{models.TypeAdminException, "admin_order_exception.html", audienceAdmin, models.ChannelEmail, "Order %s needs attention"},
	},
}

// rulesFor returns the static rules for a transition; nil when it notifies nobody.
func rulesFor(previous *models.OrderStatus, current models.OrderStatus) []notificationRule {
	if previous == nil {
		return notificationRules[triggerCreated]
	}
	if *previous == current {
		return nil
	}
	return notificationRules[string(current)]
}

type recipient struct {
	name  string
	email string
	phone string
}

func (r recipient) address(channel string) string {
	if channel == models.ChannelSMS {
		return r.phone
	}
	return r.email
}

type NotificationDispatcher struct {
	channels        Channels
	templates       *templates.Set
	outbox          repository.OutboxRepository
	profiles        repository.ProfileRepository
	farms           repository.FarmRepository
	adminAlertEmail string
	metrics         *awspkg.MetricsClient
	logger          *zap.Logger
}

func NewNotificationDispatcher(
	channels Channels,
	tmpls *templates.Set,
	outbox repository.OutboxRepository,
	profiles repository.ProfileRepository,
	farms repository.FarmRepository,
	adminAlertEmail string,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		channels:        channels,
		templates:       tmpls,
		outbox:          outbox,
		profiles:        profiles,
		farms:           farms,
		adminAlertEmail: adminAlertEmail,
		metrics:         metrics,
		logger:          logger,
	}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, order *models.Order, previous *models.OrderStatus, current models.OrderStatus, note string) error {
	rules := rulesFor(previous, current)
	if len(rules) == 0 {
		return nil
	}

	recipients := d.loadRecipients(ctx, order)
	data := orderData(order, recipients, previous, current)
	data.Note = note

	var errs []error
	for _, rule := range rules {
		to := recipients[rule.audience].address(rule.channel)
		if to == "" {
			d.logger.Debug("No recipient, skipping notification",
				zap.String("order_id", order.ID.String()),
				zap.String("type", rule.notificationType),
				zap.String("channel", rule.channel))
			continue
		}

		body, err := d.templates.Render(rule.tmplFile, data)
		if err != nil {
			d.logger.Error("Notification render failed",
				zap.String("order_id", order.ID.String()),
				zap.String("template", rule.tmplFile),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		subject := ""
		if rule.subject != "" {
			subject = fmt.Sprintf(rule.subject, order.OrderNumber)
		}

		_, sendErr := d.channels.Send(ctx, rule.channel, to, subject, body)
		if sendErr == nil {
			d.logger.Info("Notification sent",
				zap.String("order_id", order.ID.String()),
				zap.String("type", rule.notificationType),
				zap.String("channel", rule.channel))
			continue
		}

		d.logger.Warn("Notification send failed, writing to outbox",
			zap.String("order_id", order.ID.String()),
			zap.String("type", rule.notificationType),
			zap.String("channel", rule.channel),
			zap.Error(sendErr))

		entry := &models.NotificationOutbox{
			OrderID:      order.ID,
			Type:         rule.notificationType,
			Channel:      rule.channel,
			Recipient:    to,
			Subject:      subject,
			Body:         body,
			Status:       models.OutboxPending,
			ErrorMessage: sendErr.Error(),
		}
		if err := d.outbox.Create(ctx, entry); err != nil {
			d.logger.Error("Failed to write notification outbox",
				zap.String("order_id", order.ID.String()),
				zap.String("type", rule.notificationType),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("outbox %s/%s: %w", rule.notificationType, rule.channel, err))
			continue
		}
		_ = d.metrics.RecordCount(ctx, awspkg.MetricNotificationFallbacks, map[string]string{"Channel": rule.channel})
	}
	return errors.Join(errs...)
}

func (d *NotificationDispatcher) loadRecipients(ctx context.Context, order *models.Order) map[audience]recipient {
	out := map[audience]recipient{
		audienceAdmin: {name: "FarmDirect", email: d.adminAlertEmail},
	}
	if profile, err := d.profiles.FindByUserID(ctx, order.CustomerID); err == nil {
		out[audienceCustomer] = recipient{name: profile.FullName, email: profile.Email, phone: profile.Phone}
	} else {
		d.logger.Warn("Customer profile lookup failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	if farm, err := d.farms.FindByID(ctx, order.FarmID); err == nil {
		out[audienceFarm] = recipient{name: farm.Name, email: farm.Email, phone: farm.Phone}
	} else {
		d.logger.Warn("Farm lookup failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	return out
}

func orderData(order *models.Order, recipients map[audience]recipient, previous *models.OrderStatus, current models.OrderStatus) templates.OrderData {
	data := templates.OrderData{
		OrderNumber:   order.OrderNumber,
		CustomerName:  recipients[audienceCustomer].name,
		FarmName:      recipients[audienceFarm].name,
		Status:        current.Label(),
		DeliveryFee:   templates.FormatPence(order.DeliveryFee),
		Total:         templates.FormatPence(order.Total),
		DeliveryNotes: order.DeliveryNotes,
	}
	if data.CustomerName == "" {
		data.CustomerName = "there"
	}
	if previous != nil {
		data.PreviousStatus = previous.Label()
	}
	if order.RequestedDeliveryDate != nil {
		data.DeliveryDate = order.RequestedDeliveryDate.Format("Monday 2 January")
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, templates.ItemLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			LineTotal: templates.FormatPence(item.LineTotal),
		})
	}
	return data
}
