package aeon

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
)

// Params - параметры запроса к AEON. Значения приводятся к строке при подписи.
type Params map[string]any

const signField = "sign"

// Sign вычисляет подпись запроса: все поля кроме sign и nil-значений,
// отсортированные по ключу, в виде k=v через "&", плюс "&key=<secret>".
// Результат - SHA-512 в верхнем регистре.
func Sign(params Params, secret string) string {
	keys := make([]string, 0, len(params))
	values := make(map[string]string, len(params))
	for k, v := range params {
		if k == signField || isNil(v) {
			continue
		}
		keys = append(keys, k)
		values[k] = fmt.Sprint(v)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values[k])
	}
	base := b.String()
	slog.Debug("aeon: строка для подписи", "base", base+"&key=****")

	b.WriteString("&key=")
	b.WriteString(secret)

	sum := sha512.Sum512([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
