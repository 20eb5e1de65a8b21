package domain

import (
	"fmt"
	"time"
)

// VoucherPrefix starts every voucher number.
const VoucherPrefix = "JZ"

// FormatVoucherNo renders JZ{YYYYMMDD}-{seq}, seq padded to at least three digits.
func FormatVoucherNo(bizDate time.Time, seq int) string {
	return fmt.Sprintf("%s%s-%03d", VoucherPrefix, bizDate.Format("20060102"), seq)
}
