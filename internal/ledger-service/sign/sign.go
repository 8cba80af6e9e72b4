package sign

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

// Header carregando a assinatura do administrador
const Header = "X-Signature"

// Payload monta o material assinado: método + path + corpo, para que a
// assinatura não seja reaproveitável entre instruções diferentes.
func Payload(method, path string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// Sign calcula a assinatura HMAC-SHA256 em hex
func Sign(secret string, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(Payload(method, path, body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compara em tempo constante a assinatura recebida com a esperada
func Verify(secret string, method, path string, body []byte, signature string) bool {
	expected := Sign(secret, method, path, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Middleware exige assinatura válida do administrador nas rotas protegidas.
// O corpo é relido e reposto para o handler seguinte.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !Verify(secret, r.Method, r.URL.Path, body, r.Header.Get(Header)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
