package httpapi

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// writeJSON encodes a response body with jx and writes it with the given
// status code. Encoding happens before WriteHeader so a panic inside encode
// cannot leave a half-written success response.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {code, message} error envelope shared by every
// endpoint.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// fieldDecimal writes a decimal as a JSON number, preserving its exact
// textual representation instead of round-tripping through float64.
func fieldDecimal(e *jx.Encoder, name string, d decimal.Decimal) {
	e.FieldStart(name)
	e.Num(jx.Num(d.String()))
}

// decodeDecimal reads a JSON number into a decimal without a float64
// round-trip.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(n))
}
