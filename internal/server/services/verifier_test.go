package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_KnownVector(t *testing.T) {
	// echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac secret
	sig := Sign("order_1", "pay_1", "secret")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", sig)
	assert.NotEqual(t, sig, Sign("order_1", "pay_1", "other"))
}

func TestVerify_Deterministic(t *testing.T) {
	pairs := [][2]string{{"order_1", "pay_1"}, {"", ""}, {"order_ÿ", "pay_✓"}, {"a|b", "c"}}
	for _, p := range pairs {
		sig := Sign(p[0], p[1], "k")
		for i := 0; i < 3; i++ {
			assert.True(t, Verify(p[0], p[1], sig, "k"), "pair %v", p)
		}
		assert.False(t, Verify(p[0], p[1], sig, "k2"), "pair %v under other secret", p)
	}
}

func TestVerify_SingleCharacterTamper(t *testing.T) {
	sig := Sign("order_1", "pay_1", "secret")
	for i := range sig {
		b := []byte(sig)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		assert.False(t, Verify("order_1", "pay_1", string(b), "secret"), "tamper at %d", i)
	}
}

func TestVerify_RejectsMalformed(t *testing.T) {
	sig := Sign("order_1", "pay_1", "secret")
	assert.False(t, Verify("order_1", "pay_1", "", "secret"))
	assert.False(t, Verify("order_1", "pay_1", sig[:63], "secret"))
	assert.False(t, Verify("order_1", "pay_1", sig+"0", "secret"))
	assert.False(t, Verify("order_2", "pay_1", sig, "secret"))
	assert.False(t, Verify("order_1", "pay_2", sig, "secret"))
}
