package application

import (
	"strconv"

	"image-gateway/middleware/swcache/domain"
)

const offlineImageSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300">
  <rect width="100%" height="100%" fill="#333"/>
  <text x="50%" y="50%" dominant-baseline="middle" text-anchor="middle" fill="#666" font-size="14">Offline</text>
</svg>`

// OfflineImage é a resposta sintética para imagem sem rede.
func OfflineImage() domain.Snapshot {
	body := []byte(offlineImageSVG)
	return domain.Snapshot{
		Status: 200,
		Header: map[string][]string{
			"Content-Type":   {"image/svg+xml"},
			"Content-Length": {strconv.Itoa(len(body))},
		},
		Body: body,
		Type: domain.ResponseBasic,
	}
}
