package lease

import (
	"net"
	"time"
)

// Record is a single dnsmasq DHCP lease.
//
//	1535916991 aa:bb:cc:dd:ee:ff 172.16.1.60 android-2bfa2b2619add6eb 01:aa:bb:cc:dd:ee:ff
//
// Fields are set once by Parse or NewRecord and never change afterwards.
type Record struct {
	ip       net.IP
	mac      net.HardwareAddr
	expiry   time.Time
	hostname string
	clientID string
}

// NewRecord builds a record from already parsed values
func NewRecord(ip net.IP, mac net.HardwareAddr, expiry time.Time, hostname, clientID string) Record {
	return Record{
		ip:       cloneIP(ip),
		mac:      cloneMAC(mac),
		expiry:   expiry,
		hostname: hostname,
		clientID: clientID,
	}
}

// IPAddress returns a copy of the leased address
func (r Record) IPAddress() net.IP { return cloneIP(r.ip) }

// MACAddress returns a copy of the client hardware address
func (r Record) MACAddress() net.HardwareAddr { return cloneMAC(r.mac) }

// LeaseExpiryTime returns when the lease expires
func (r Record) LeaseExpiryTime() time.Time { return r.expiry }

// Hostname returns the client hostname, empty when dnsmasq recorded none
func (r Record) Hostname() string { return r.hostname }

// ClientID returns the DHCP client identifier, empty when absent
func (r Record) ClientID() string { return r.clientID }

func cloneIP(ip net.IP) net.IP {
	if ip == nil {
		return nil
	}
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func cloneMAC(mac net.HardwareAddr) net.HardwareAddr {
	if mac == nil {
		return nil
	}
	out := make(net.HardwareAddr, len(mac))
	copy(out, mac)
	return out
}
