package notification_test

import (
	"strconv"

	"github.com/rs-labo46/ec-backoffice/internal/notification"
)

func isPermanentErr(err error) bool {
	return notification.IsPermanent(err)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
