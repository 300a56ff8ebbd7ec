package cli

import "net"

// lanProbeAddr is only used to pick the outbound interface; UDP "dial" sends
// no packets.
const lanProbeAddr = "192.0.2.1:19132"

// localIP returns the LAN address players on this network connect to, or ""
// when the host has no route out.
func localIP() string {
	conn, err := net.Dial("udp4", lanProbeAddr)
	if err != nil {
		return firstPrivateIP()
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsLoopback() {
		return addr.IP.String()
	}
	return firstPrivateIP()
}

// firstPrivateIP scans the interfaces for an RFC 1918 address.
func firstPrivateIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil && ip.IsPrivate() {
			return ip.String()
		}
	}
	return ""
}
