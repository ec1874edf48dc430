package openrtb_ext

// OrtbVersion is the OpenRTB protocol version a bidder (or channel) speaks.
type OrtbVersion string

const (
	OrtbVersion25 OrtbVersion = "2.5"
	OrtbVersion26 OrtbVersion = "2.6"
)

// SupportsCatTax reports whether the version carries the bid.cattax field.
// Category taxonomy versioning entered the protocol with 2.6.
func (v OrtbVersion) SupportsCatTax() bool {
	return v >= OrtbVersion26
}
