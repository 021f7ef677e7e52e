package lease

// ExpiryLayout renders expiry times with a numeric zone offset,
// e.g. 2018-09-02T19:36:31+00:00
const ExpiryLayout = "2006-01-02T15:04:05-07:00"

// JSON keys of a serialized lease
const (
	KeyIPAddress       = "ip_address"
	KeyMACAddress      = "mac_address"
	KeyLeaseExpiryTime = "lease_expiry_time"
	KeyClientID        = "client_id"
	KeyHostname        = "hostname"
)

// Serialize projects a record onto string values ready for JSON or YAML
// encoding. No validation happens here.
func Serialize(r Record) map[string]string {
	ip, mac := "", ""
	if r.ip != nil {
		ip = r.ip.String()
	}
	if r.mac != nil {
		mac = r.mac.String()
	}
	return map[string]string{
		KeyIPAddress:       ip,
		KeyMACAddress:      mac,
		KeyLeaseExpiryTime: r.expiry.UTC().Format(ExpiryLayout),
		KeyClientID:        r.clientID,
		KeyHostname:        r.hostname,
	}
}

// SerializeAll serializes records in order. The result is never nil so an
// empty lease file encodes as [].
func SerializeAll(records []Record) []map[string]string {
	out := make([]map[string]string, 0, len(records))
	for _, r := range records {
		out = append(out, Serialize(r))
	}
	return out
}
