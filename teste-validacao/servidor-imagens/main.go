package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"
	"strings"
)

const pagina = `<!doctype html>
<html><head><title>Galeria</title></head>
<body>
<h1>Galeria</h1>
%s
</body></html>`

func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		var b strings.Builder
		for i := 1; i <= 12; i++ {
			fmt.Fprintf(&b, `<img class="lazy-image" width="400" height="300" data-src="/img/%d.png" alt="foto %d">`+"\n", i, i)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, pagina, b.String())
		fmt.Println("Log: página servida")
	})

	// Só PNG existe: pedidos .webp recebem 404 e forçam o fallback no cliente.
	http.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/img/")
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".png"))
		if err != nil || !strings.HasSuffix(name, ".png") {
			fmt.Printf("Log: imagem inexistente %s\n", name)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(quadro(n))
		fmt.Printf("Log: imagem %d servida\n", n)
	})

	fmt.Println("Servidor de imagens rodando em http://localhost:8081")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}

func quadro(n int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	c := color.RGBA{R: uint8(n * 20), G: uint8(255 - n*15), B: 128, A: 255}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
