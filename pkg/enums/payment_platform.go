package enums

// PaymentPlatform names the external processor that confirmed a payment.
type PaymentPlatform string

const (
	PaymentPlatformNone        PaymentPlatform = ""
	PaymentPlatformMercadoPago PaymentPlatform = "MercadoPago"
)

// String implements fmt.Stringer.
func (p PaymentPlatform) String() string {
	return string(p)
}
