package credstash

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// keyLength is the size of the KMS data key material: a 32-byte AES key
// followed by a 32-byte HMAC key.
const keyLength = 64

const defaultDigest = "SHA256"

// item is one row of a credstash table
type item struct {
	Name     string
	Version  string
	Key      string // base64 KMS-wrapped data key
	Contents string // base64 AES-CTR ciphertext
	HMAC     string // hex HMAC over the ciphertext
	Digest   string // HMAC hash name, SHA256 when absent
}

// itemFromAttributes decodes a DynamoDB item. The hmac attribute appears
// as a string in tables written by the Python CLI and as binary in tables
// written by newer clients, so both shapes are accepted.
func itemFromAttributes(attrs map[string]types.AttributeValue) (item, error) {
	it := item{
		Name:     stringAttr(attrs, "name"),
		Version:  stringAttr(attrs, "version"),
		Key:      stringAttr(attrs, "key"),
		Contents: stringAttr(attrs, "contents"),
		Digest:   stringAttr(attrs, "digest"),
	}

	switch av := attrs["hmac"].(type) {
	case *types.AttributeValueMemberS:
		it.HMAC = av.Value
	case *types.AttributeValueMemberB:
		it.HMAC = string(av.Value)
	}

	if it.Name == "" || it.Key == "" || it.Contents == "" || it.HMAC == "" {
		return item{}, fmt.Errorf("malformed credential item (name=%q)", it.Name)
	}
	if it.Digest == "" {
		it.Digest = defaultDigest
	}

	return it, nil
}

// attributes encodes the item for PutItem
func (it item) attributes() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name":     &types.AttributeValueMemberS{Value: it.Name},
		"version":  &types.AttributeValueMemberS{Value: it.Version},
		"key":      &types.AttributeValueMemberS{Value: it.Key},
		"contents": &types.AttributeValueMemberS{Value: it.Contents},
		"hmac":     &types.AttributeValueMemberS{Value: it.HMAC},
		"digest":   &types.AttributeValueMemberS{Value: it.Digest},
	}
}

func stringAttr(attrs map[string]types.AttributeValue, name string) string {
	if av, ok := attrs[name].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}

// openItem verifies the item's HMAC with the unwrapped key material and
// decrypts the contents. Verification happens before decryption, so a
// tampered ciphertext never reaches the cipher.
func openItem(it item, keyMaterial []byte) (string, error) {
	dataKey, hmacKey, err := splitKeyMaterial(keyMaterial)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", it.Name, err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(it.Contents)
	if err != nil {
		return "", fmt.Errorf("secret %s: malformed contents: %w", it.Name, err)
	}

	newHash, err := hashForDigest(it.Digest)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", it.Name, err)
	}

	mac := hmac.New(newHash, hmacKey)
	mac.Write(ciphertext)
	expected, err := hex.DecodeString(it.HMAC)
	if err != nil {
		return "", fmt.Errorf("secret %s: malformed hmac: %w", it.Name, err)
	}
	if !hmac.Equal(mac.Sum(nil), expected) {
		return "", IntegrityError{Name: it.Name}
	}

	plaintext := make([]byte, len(ciphertext))
	ctrStream(dataKey).XORKeyStream(plaintext, ciphertext)
	return string(plaintext), nil
}

// sealItem encrypts value with fresh key material and builds the row to
// store, carrying the KMS-wrapped form of that material.
func sealItem(name, version, value string, keyMaterial, wrappedKey []byte) (item, error) {
	dataKey, hmacKey, err := splitKeyMaterial(keyMaterial)
	if err != nil {
		return item{}, err
	}

	ciphertext := make([]byte, len(value))
	ctrStream(dataKey).XORKeyStream(ciphertext, []byte(value))

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(ciphertext)

	return item{
		Name:     name,
		Version:  version,
		Key:      base64.StdEncoding.EncodeToString(wrappedKey),
		Contents: base64.StdEncoding.EncodeToString(ciphertext),
		HMAC:     hex.EncodeToString(mac.Sum(nil)),
		Digest:   defaultDigest,
	}, nil
}

func splitKeyMaterial(keyMaterial []byte) (dataKey, hmacKey []byte, err error) {
	if len(keyMaterial) != keyLength {
		return nil, nil, fmt.Errorf("unexpected key material length %d", len(keyMaterial))
	}
	return keyMaterial[:keyLength/2], keyMaterial[keyLength/2:], nil
}

// ctrStream builds the AES-CTR stream credstash uses: the counter block
// starts at 1, not 0.
func ctrStream(dataKey []byte) cipher.Stream {
	block, err := aes.NewCipher(dataKey)
	if err != nil {
		// key length is checked by splitKeyMaterial
		panic(err)
	}
	iv := make([]byte, aes.BlockSize)
	iv[aes.BlockSize-1] = 1
	return cipher.NewCTR(block, iv)
}

// hashForDigest maps a stored digest name to its hash constructor
func hashForDigest(digest string) (func() hash.Hash, error) {
	switch digest {
	case "SHA256":
		return sha256.New, nil
	case "SHA384":
		return sha512.New384, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported digest %q", digest)
	}
}

// IntegrityError indicates an item's ciphertext failed HMAC verification
type IntegrityError struct {
	Name string
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("secret %s failed integrity check", e.Name)
}
