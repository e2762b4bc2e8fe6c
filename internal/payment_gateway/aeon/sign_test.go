package aeon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

func TestSign_KnownVector(t *testing.T) {
	params := Params{
		"orderAmount":     "100",
		"appId":           "app-1",
		"merchantOrderNo": "BOOST_abc_42",
	}
	// sha512("appId=app-1&merchantOrderNo=BOOST_abc_42&orderAmount=100&key=s3cret")
	want := "15C68855D23EB60F539AB5EB1CB65BC378F9E8EA3AF438C83BBF11E6919381A5508D63783769A8F2E8D6E98AE91722FF93FA23DCC57925065231B2C054EC7775"
	assert.Equal(t, want, Sign(params, testSecret))
}

func TestSign_EmptyParams(t *testing.T) {
	// sha512("&key=s3cret")
	want := "CF4E29AD24AC2D7FB6FC744CA593C4265649718DDBF4459891791609C1F0157C83C02BAA9EEADFD4834A52A41E49A4D83A86BB3EC6DFAB8F71A62544B9533A1A"
	assert.Equal(t, want, Sign(Params{}, testSecret))
	assert.Equal(t, want, Sign(Params{"sign": "X", "userId": nil}, testSecret))
}

func TestSign_IgnoresSignAndNil(t *testing.T) {
	base := Params{"appId": "app-1", "merchantOrderNo": "o-1"}
	expected := Sign(base, testSecret)

	var nilPtr *string
	withExtras := Params{
		"appId":           "app-1",
		"merchantOrderNo": "o-1",
		"sign":            "PREVIOUS",
		"userId":          nil,
		"note":            nilPtr,
	}
	assert.Equal(t, expected, Sign(withExtras, testSecret))
}

func TestSign_CoercesValuesToString(t *testing.T) {
	asInts := Params{"orderAmount": 100, "userId": int64(42)}
	asStrings := Params{"orderAmount": "100", "userId": "42"}
	assert.Equal(t, Sign(asStrings, testSecret), Sign(asInts, testSecret))
}

func TestSign_Deterministic(t *testing.T) {
	a := Params{"b": "2", "a": "1", "c": "3"}
	b := Params{"c": "3", "a": "1", "b": "2"}
	first := Sign(a, testSecret)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Sign(b, testSecret))
	}
}

func TestSign_UppercaseHex512(t *testing.T) {
	sig := Sign(Params{"appId": "x"}, testSecret)
	assert.Len(t, sig, 128)
	assert.Regexp(t, `^[0-9A-F]+$`, sig)
}

func TestSign_DependsOnSecretAndValues(t *testing.T) {
	p := Params{"appId": "x"}
	assert.NotEqual(t, Sign(p, "a"), Sign(p, "b"))
	assert.NotEqual(t, Sign(p, testSecret), Sign(Params{"appId": "y"}, testSecret))
}

func TestSign_ByteWiseKeyOrder(t *testing.T) {
	// sha512("Z=2&a=1&key=s3cret"): "Z" sorts before "a"
	want := "6EB4B81E20FBE0DD40AF029AB7E8B8EA6AAA6F87B42525558C76C104C572095925EA8A583B626D62F6777898BFE49662FCE3011536F8BE48D699D5953B2AA55A"
	assert.Equal(t, want, Sign(Params{"a": "1", "Z": "2"}, testSecret))
}
