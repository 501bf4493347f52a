package binutil

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/travnick/wmbusmeters/internal/errs"
)

// AESCBCDecrypt decrypts ciphertext (a multiple of the AES block size) with
// the given key and IV, generalized to take an explicit IV instead of
// always deriving the TPL short-IV.
func AESCBCDecrypt(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecryptError, err, "invalid AES key")
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errs.New(errs.KindDecryptError, "ciphertext length %d not a multiple of block size", len(ciphertext))
	}
	if len(iv) != aes.BlockSize {
		return nil, errs.New(errs.KindDecryptError, "IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// AESCBCEncrypt is the inverse of AESCBCDecrypt, used by round-trip tests
// and by any outbound send-bus-content path that needs to re-encrypt a frame.
func AESCBCEncrypt(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecryptError, err, "invalid AES key")
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, errs.New(errs.KindDecryptError, "plaintext length %d not a multiple of block size", len(plaintext))
	}
	if len(iv) != aes.BlockSize {
		return nil, errs.New(errs.KindDecryptError, "IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// AESECBEncryptBlock encrypts exactly one 16-byte block with no chaining,
// used by CMAC's internal encrypt-only calls.
func AESECBEncryptBlock(key, block []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecryptError, err, "invalid AES key")
	}
	if len(block) != aes.BlockSize {
		return nil, errs.New(errs.KindDecryptError, "block must be %d bytes, got %d", aes.BlockSize, len(block))
	}
	out := make([]byte, aes.BlockSize)
	c.Encrypt(out, block)
	return out, nil
}

// AESCTRXOR applies AES-CTR keystream generated from the given counter
// block over data, used by the ELL layer's optional AES-CTR mode.
func AESCTRXOR(data, key, counterBlock []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecryptError, err, "invalid AES key")
	}
	if len(counterBlock) != aes.BlockSize {
		return nil, errs.New(errs.KindDecryptError, "counter block must be %d bytes, got %d", aes.BlockSize, len(counterBlock))
	}
	out := make([]byte, len(data))
	cipher.NewCTR(block, counterBlock).XORKeyStream(out, data)
	return out, nil
}
