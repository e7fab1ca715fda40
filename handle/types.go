// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package handle

// Type is the plaintext type a ciphertext decrypts to, carried in byte 30 of a handle.
type Type uint8

// Ciphertext type constants, matching the FHE executor's type numbering.
const (
	TypeEbool     Type = 0  // FheBool - 1 bit
	TypeEuint4    Type = 1  // FheUint4 - 4 bits
	TypeEuint8    Type = 2  // FheUint8 - 8 bits
	TypeEuint16   Type = 3  // FheUint16 - 16 bits
	TypeEuint32   Type = 4  // FheUint32 - 32 bits
	TypeEuint64   Type = 5  // FheUint64 - 64 bits
	TypeEuint128  Type = 6  // FheUint128 - 128 bits
	TypeEuint160  Type = 7  // FheUint160 - 160 bits (Ethereum addresses)
	TypeEuint256  Type = 8  // FheUint256 - 256 bits
	TypeEbytes64  Type = 9  // 64 byte ciphertext
	TypeEbytes128 Type = 10 // 128 byte ciphertext
	TypeEbytes256 Type = 11 // 256 byte ciphertext
	TypeEaddress  Type = 7  // Alias for TypeEuint160
)

// IsValid reports whether t names a known ciphertext type.
//
// Verification never rejects a handle because of its type: the executor casts
// unknown types itself. This is only used for display and by producers.
func (t Type) IsValid() bool {
	return t <= TypeEbytes256
}

func (t Type) String() string {
	switch t {
	case TypeEbool:
		return "ebool"
	case TypeEuint4:
		return "euint4"
	case TypeEuint8:
		return "euint8"
	case TypeEuint16:
		return "euint16"
	case TypeEuint32:
		return "euint32"
	case TypeEuint64:
		return "euint64"
	case TypeEuint128:
		return "euint128"
	case TypeEuint160:
		return "eaddress"
	case TypeEuint256:
		return "euint256"
	case TypeEbytes64:
		return "ebytes64"
	case TypeEbytes128:
		return "ebytes128"
	case TypeEbytes256:
		return "ebytes256"
	default:
		return "unknown"
	}
}
