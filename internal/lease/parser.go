package lease

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// absent marks a hostname or client id dnsmasq does not know
	absent    = "*"
	numFields = 5
)

// Parse parses one line of a dnsmasq lease file.
//
// Fields are, in order: expiry time, MAC address, IP address, hostname and
// client id. Checks run in that order too: field count, then both addresses,
// then the expiry time.
func Parse(line string) (Record, error) {
	if line == "" {
		return Record{}, fmt.Errorf("%w: lease line must be a non-empty string", ErrInvalidArgument)
	}

	fields := strings.Split(strings.TrimSpace(line), " ")
	if len(fields) != numFields {
		return Record{}, newParseError(FieldCount, line,
			"expected %d space separated fields, got %d", numFields, len(fields))
	}
	expiryField, macField, ipField, hostname, clientID := fields[0], fields[1], fields[2], fields[3], fields[4]

	ip, ipErr := ParseIP(ipField)
	mac, macErr := ParseMAC(macField)
	if ipErr != nil || macErr != nil {
		var msgs []string
		if ipErr != nil {
			msgs = append(msgs, ipErr.Error())
		}
		if macErr != nil {
			msgs = append(msgs, macErr.Error())
		}
		return Record{}, newParseError(AddressFormat, line, "unable to parse IP or MAC address (%s)", strings.Join(msgs, "; "))
	}

	expiry, err := ParseExpiry(expiryField)
	if err != nil {
		return Record{}, newParseError(Timestamp, line, "unable to parse lease expiry time (%v)", err)
	}

	if hostname == absent {
		hostname = ""
	}
	if clientID == absent {
		clientID = ""
	}

	return Record{
		ip:       ip,
		mac:      mac,
		expiry:   expiry,
		hostname: hostname,
		clientID: clientID,
	}, nil
}

// ParseIP parses an IPv4 or IPv6 address in standard textual form
func ParseIP(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address %q", s)
	}
	if v4 := ip.To4(); v4 != nil && !strings.Contains(s, ":") {
		ip = v4
	}
	return ip, nil
}

// ParseMAC parses a 48-bit or 64-bit hardware address. Colon, hyphen and
// dot separated forms are accepted.
func ParseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q", s)
	}
	if len(mac) != 6 && len(mac) != 8 {
		return nil, fmt.Errorf("invalid MAC address %q: %d octets", s, len(mac))
	}
	return mac, nil
}

// ParseExpiry parses a lease expiry. A base-10 integer is read as Unix epoch
// seconds; anything else must be a date dateparse can read without ambiguity.
func ParseExpiry(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
