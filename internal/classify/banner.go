package classify

import (
	"context"
	"strings"

	"github.com/portsleuth/portsleuth/internal/model"
)

// bannerLimit bounds how much of an unsolicited banner is read.
// Greeting banners fit comfortably in one segment.
const bannerLimit = 1024

// BannerStrategy detects services that announce themselves immediately
// after connect: SSH, FTP, and SMTP all greet before the client sends
// anything. The read is passive, so this runs after the active HTTP
// probe has already failed to match.
type BannerStrategy struct {
	x *exchanger
}

// NewBannerStrategy creates the passive banner detection strategy.
func NewBannerStrategy(x *exchanger) *BannerStrategy {
	return &BannerStrategy{x: x}
}

// Name returns the strategy name.
func (s *BannerStrategy) Name() string {
	return "banner"
}

// Detect dials the port and waits one exchange timeout for a greeting.
// Silent servers yield no match.
func (s *BannerStrategy) Detect(ctx context.Context, port int) *model.ServiceInfo {
	raw, err := s.x.readBanner(ctx, port, bannerLimit)
	if err != nil {
		return nil
	}

	banner, _, _ := strings.Cut(string(raw), "\n")
	banner = strings.TrimRight(banner, "\r")
	if banner == "" {
		return nil
	}

	return matchBanner(banner)
}

// matchBanner maps a greeting line onto a service label.
//
// SSH banners begin "SSH-" per RFC 4253. FTP and SMTP both greet with a
// 220 reply code; SMTP greetings conventionally carry "SMTP"/"ESMTP"
// while FTP greetings do not, which is the only reliable way to tell
// them apart from one line.
func matchBanner(banner string) *model.ServiceInfo {
	lower := strings.ToLower(banner)

	switch {
	case strings.HasPrefix(banner, "SSH-"):
		return &model.ServiceInfo{
			Service: model.ServiceSSH,
			Version: banner,
		}
	case strings.HasPrefix(banner, "220") && (strings.Contains(lower, "smtp") || strings.Contains(lower, "esmtp")):
		return &model.ServiceInfo{
			Service: model.ServiceSMTP,
			Version: strings.TrimSpace(strings.TrimPrefix(banner, "220")),
		}
	case strings.HasPrefix(banner, "220"):
		return &model.ServiceInfo{
			Service: model.ServiceFTP,
			Version: strings.TrimSpace(strings.TrimPrefix(banner, "220")),
		}
	default:
		return nil
	}
}
