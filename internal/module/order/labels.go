package order

import "github.com/simp-lee/posadmin/internal/domain"

var paymentLabels = map[string]string{
	domain.PaymentPaid:              "Paid",
	domain.PaymentHold:              "Hold",
	domain.PaymentPartially:         "Partially Paid",
	domain.PaymentPartiallyRefunded: "Partially Refunded",
	domain.PaymentRefunded:          "Refunded",
	domain.PaymentUnpaid:            "Unpaid",
	domain.PaymentVoid:              "Voided",
	domain.PaymentDue:               "Due",
	domain.PaymentPartiallyDue:      "Due With Payment",
}

// paymentOrder fixes the option order of the payment status filter.
var paymentOrder = []string{
	domain.PaymentPaid,
	domain.PaymentHold,
	domain.PaymentPartially,
	domain.PaymentPartiallyRefunded,
	domain.PaymentRefunded,
	domain.PaymentUnpaid,
	domain.PaymentVoid,
	domain.PaymentDue,
	domain.PaymentPartiallyDue,
}

var deliveryLabels = map[string]string{
	domain.DeliveryPending:      "Pending",
	domain.DeliveryOngoing:      "Ongoing",
	domain.DeliveryDelivered:    "Delivered",
	domain.DeliveryFailed:       "Failed",
	domain.DeliveryNotAvailable: "Not Available",
}

var processLabels = map[string]string{
	domain.ProcessPending:      "Pending",
	domain.ProcessOngoing:      "Ongoing",
	domain.ProcessReady:        "Ready",
	domain.ProcessFailed:       "Failed",
	domain.ProcessNotAvailable: "Not Available",
}

var typeLabels = map[string]string{
	domain.OrderTypeTakeaway: "Take Away",
	domain.OrderTypeDelivery: "Delivery",
}

// rowClasses is the row CSS class per payment status.
var rowClasses = map[string]string{
	domain.PaymentPaid:              "success border text-sm",
	domain.PaymentUnpaid:            "danger border text-sm",
	domain.PaymentPartially:         "info border text-sm",
	domain.PaymentHold:              "danger border text-sm",
	domain.PaymentVoid:              "error border text-sm",
	domain.PaymentRefunded:          "default border text-sm",
	domain.PaymentPartiallyRefunded: "default border text-sm",
	domain.PaymentDue:               "danger border text-sm",
	domain.PaymentPartiallyDue:      "danger border text-sm",
}
