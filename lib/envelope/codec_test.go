package envelope

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/jklemens/sKV/lib/store"
)

func newTestCodec() *Codec {
	return NewCodec("alice", "machine-1")
}

// TestEncodeDecodeRoundTrip tests that every tag round-trips through the
// envelope
func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec()

	cases := []struct {
		tag  store.TypeTag
		text string
	}{
		{store.TagString, "hello world"},
		{store.TagString, ""},
		{store.TagInt64, "-9223372036854775808"},
		{store.TagFloat32, "1.5"},
		{store.TagFloat64, "3.141592653589793"},
		{store.TagBool, "true"},
	}

	for _, cse := range cases {
		ciphertext, err := c.Encode(cse.tag, cse.text, "some-key")
		if err != nil {
			t.Fatalf("Encode(%q, %q) failed: %v", cse.tag, cse.text, err)
		}

		tag, text, err := c.Decode(ciphertext, "some-key")
		if err != nil {
			t.Fatalf("Decode of %q %q failed: %v", cse.tag, cse.text, err)
		}
		if tag != cse.tag || text != cse.text {
			t.Errorf("round trip = (%q, %q), want (%q, %q)", tag, text, cse.tag, cse.text)
		}
	}
}

// TestCiphertextShape tests block alignment and that plaintext never leaks
// into the ciphertext
func TestCiphertextShape(t *testing.T) {
	c := newTestCodec()

	ciphertext, err := c.Encode(store.TagString, "super secret payload", "key")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		t.Errorf("ciphertext length %d is not block aligned", len(ciphertext))
	}
	if bytes.Contains(ciphertext, []byte("super secret payload")) {
		t.Error("ciphertext contains the plaintext payload")
	}
	if bytes.Contains(ciphertext, []byte("str")) {
		t.Error("ciphertext contains the plaintext type tag")
	}
}

// TestSaltFreshness tests that encoding the same value twice yields
// different ciphertexts
func TestSaltFreshness(t *testing.T) {
	c := newTestCodec()

	first, err := c.Encode(store.TagString, "same value", "key")
	if err != nil {
		t.Fatalf("first Encode failed: %v", err)
	}
	second, err := c.Encode(store.TagString, "same value", "key")
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("two encodes of the same value produced identical ciphertexts")
	}
}

// TestKeySeparation tests that a record is bound to its data key
func TestKeySeparation(t *testing.T) {
	c := newTestCodec()

	ciphertext, err := c.Encode(store.TagString, "value", "key-a")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, _, err := c.Decode(ciphertext, "key-b"); err == nil {
		t.Error("decode under a different data key should fail")
	}
}

// TestIdentityBinding tests that a record written under one identity cannot
// be decoded under another
func TestIdentityBinding(t *testing.T) {
	writer := NewCodec("alice", "machine-1")

	ciphertext, err := writer.Encode(store.TagInt64, "42", "key")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	otherUser := NewCodec("bob", "machine-1")
	if _, _, err := otherUser.Decode(ciphertext, "key"); err == nil {
		t.Error("decode under a different user should fail")
	}

	otherMachine := NewCodec("alice", "machine-2")
	if _, _, err := otherMachine.Decode(ciphertext, "key"); err == nil {
		t.Error("decode under a different machine should fail")
	}

	// the original identity still works
	reader := NewCodec("alice", "machine-1")
	tag, text, err := reader.Decode(ciphertext, "key")
	if err != nil || tag != store.TagInt64 || text != "42" {
		t.Errorf("decode under the same identity = (%q, %q, %v), want (int, 42, nil)", tag, text, err)
	}
}

// TestDecodeMalformedCiphertext tests the ErrCiphertext failure modes
func TestDecodeMalformedCiphertext(t *testing.T) {
	c := newTestCodec()

	cases := [][]byte{
		nil,
		{},
		[]byte("short"),                 // not block aligned
		bytes.Repeat([]byte{0xff}, 32),  // aligned junk, bad padding or shape
		bytes.Repeat([]byte{0x00}, 160), // aligned zeros
	}

	for i, junk := range cases {
		if _, _, err := c.Decode(junk, "key"); err == nil {
			t.Errorf("case %d: decode of junk should fail", i)
		}
	}
}

// TestDecodeBitflip tests that a single flipped ciphertext bit is detected
func TestDecodeBitflip(t *testing.T) {
	c := newTestCodec()

	ciphertext, err := c.Encode(store.TagString, "a value long enough to span more than one block", "key")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, pos := range []int{0, len(ciphertext) / 2} {
		mutated := append([]byte(nil), ciphertext...)
		mutated[pos] ^= 0x01

		if _, _, err := c.Decode(mutated, "key"); err == nil {
			t.Errorf("bit flip at %d went undetected", pos)
		}
	}
}

// TestKeyDerivationDeterministic tests that key material is stable per
// (identity, data key) and distinct across either input
func TestKeyDerivationDeterministic(t *testing.T) {
	c := newTestCodec()

	first := c.keysFor("key")
	second := c.keysFor("key") // cache hit
	if first != second {
		t.Error("repeated derivation for the same data key differs")
	}

	if c.keysFor("other-key") == first {
		t.Error("different data keys derived identical key material")
	}

	other := NewCodec("bob", "machine-1")
	if other.keysFor("key") == first {
		t.Error("different identities derived identical key material")
	}
}

// TestPKCS7 tests the padding helpers
func TestPKCS7(t *testing.T) {
	for length := 0; length <= 2*aes.BlockSize; length++ {
		data := bytes.Repeat([]byte{0xab}, length)

		padded := pkcs7Pad(data, aes.BlockSize)
		if len(padded)%aes.BlockSize != 0 {
			t.Errorf("len %d: padded length %d not aligned", length, len(padded))
		}
		if len(padded) == len(data) {
			t.Errorf("len %d: padding must always add at least one byte", length)
		}

		unpadded, ok := pkcs7Unpad(padded, aes.BlockSize)
		if !ok {
			t.Errorf("len %d: unpad rejected valid padding", length)
			continue
		}
		if !bytes.Equal(unpadded, data) {
			t.Errorf("len %d: unpad returned %d bytes, want %d", length, len(unpadded), len(data))
		}
	}

	// invalid paddings
	if _, ok := pkcs7Unpad([]byte{}, aes.BlockSize); ok {
		t.Error("unpad of empty input should fail")
	}
	if _, ok := pkcs7Unpad(bytes.Repeat([]byte{0x00}, aes.BlockSize), aes.BlockSize); ok {
		t.Error("unpad with zero pad byte should fail")
	}
	bad := bytes.Repeat([]byte{0x02}, aes.BlockSize)
	bad[aes.BlockSize-2] = 0x03
	if _, ok := pkcs7Unpad(bad, aes.BlockSize); ok {
		t.Error("unpad with inconsistent pad bytes should fail")
	}
	if _, ok := pkcs7Unpad(bytes.Repeat([]byte{0x11}, aes.BlockSize), aes.BlockSize); ok {
		t.Error("unpad with pad byte larger than block should fail")
	}
}
