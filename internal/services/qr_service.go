package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	maxQRDataLen = 1024
	minQRSize    = 64
)

type QRServiceDeps struct {
	// ServiceURL is the QR image endpoint, e.g. https://api.qrserver.com/v1/create-qr-code/.
	ServiceURL  string
	DefaultSize int
	MaxSize     int
}

type qrService struct {
	base        *url.URL
	defaultSize int
	maxSize     int
}

func NewQRService(deps QRServiceDeps) (QRService, error) {
	base, err := url.Parse(strings.TrimSpace(deps.ServiceURL))
	if err != nil || (base.Scheme != "https" && base.Scheme != "http") || base.Host == "" {
		return nil, errors.New("qr service: service url must be absolute http(s)")
	}
	svc := &qrService{base: base, defaultSize: deps.DefaultSize, maxSize: deps.MaxSize}
	if svc.maxSize <= 0 {
		svc.maxSize = 1000
	}
	if svc.defaultSize <= 0 || svc.defaultSize > svc.maxSize {
		svc.defaultSize = min(300, svc.maxSize)
	}
	return svc, nil
}

// URL builds the QR image URL for data. A zero size picks the default.
func (s *qrService) URL(data string, size int) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", invalid("data is required")
	}
	if !utf8.ValidString(data) || len(data) > maxQRDataLen {
		return "", invalid("data must be valid UTF-8 of at most %d bytes", maxQRDataLen)
	}
	if size == 0 {
		size = s.defaultSize
	}
	if size < minQRSize || size > s.maxSize {
		return "", invalid("size must be between %d and %d", minQRSize, s.maxSize)
	}
	u := *s.base
	q := u.Query()
	q.Set("size", fmt.Sprintf("%dx%d", size, size))
	q.Set("data", data)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
