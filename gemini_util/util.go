package gemini_util

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

type ISealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Sealer encrypts stored text with AES-CBC and a random IV.
type Sealer struct {
	block cipher.Block
}

// NewSealer accepts a 16, 24 or 32 byte key.
func NewSealer(key string) (*Sealer, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("invalid record key: %w", err)
	}
	return &Sealer{block: block}, nil
}

// Seal AES 加密并转换为 URL 安全的 Base64 编码
func (s *Sealer) Seal(plaintext string) (string, error) {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)

	ciphertext := make([]byte, aes.BlockSize+len(padded))
	iv := ciphertext[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	mode := cipher.NewCBCEncrypter(s.block, iv)
	mode.CryptBlocks(ciphertext[aes.BlockSize:], padded)

	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// PKCS7 填充函数
func pkcs7Pad(input []byte, blockSize int) []byte {
	paddingLen := blockSize - len(input)%blockSize
	padding := bytes.Repeat([]byte{byte(paddingLen)}, paddingLen)
	return append(input, padding...)
}

// Open 解密 Seal 的输出
func (s *Sealer) Open(sealed string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < 2*aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
		return "", errors.New("ciphertext too short")
	}
	iv := ciphertext[:aes.BlockSize]
	ciphertext = ciphertext[aes.BlockSize:]

	mode := cipher.NewCBCDecrypter(s.block, iv)
	mode.CryptBlocks(ciphertext, ciphertext)

	plaintext, err := pkcs7Unpad(ciphertext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// PKCS7 去填充函数
func pkcs7Unpad(input []byte, blockSize int) ([]byte, error) {
	paddingLen := int(input[len(input)-1])
	if paddingLen == 0 || paddingLen > blockSize || paddingLen > len(input) {
		return nil, errors.New("invalid padding")
	}
	return input[:len(input)-paddingLen], nil
}
