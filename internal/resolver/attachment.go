package resolver

import "strings"

// CDNAttachmentClassifier recognizes the platform's own CDN hosts, which
// serve uploaded attachments directly and need no extractor.
type CDNAttachmentClassifier struct {
	Hosts []string
}

func NewCDNAttachmentClassifier(hosts ...string) CDNAttachmentClassifier {
	if len(hosts) == 0 {
		hosts = []string{"cdn.discordapp.com", "media.discordapp.net"}
	}
	return CDNAttachmentClassifier{Hosts: hosts}
}

// IsPlayableAttachment reports whether host is one of the platform's CDN
// hosts.
func (c CDNAttachmentClassifier) IsPlayableAttachment(host string) bool {
	host = strings.ToLower(host)
	for _, h := range c.Hosts {
		if host == h {
			return true
		}
	}
	return false
}
