// internal/crc/catalogue.go
package crc

import (
	"sort"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

// Protocol profiles.
//
// Modbus guards plain register-read frames and every response
// (reflected, 0xA001 in LSB-first form, init 0xFFFF, no xor-out).
// Buypass guards the information part of MMK request frames
// (non-reflected 0x8005, init 0).
var (
	Modbus  = FromCRC16(crc16.CRC16_MODBUS)
	Buypass = FromCRC16(crc16.CRC16_BUYPASS)
)

var crc16Params = []crc16.Params{
	crc16.CRC16_ARC,
	crc16.CRC16_AUG_CCITT,
	crc16.CRC16_BUYPASS,
	crc16.CRC16_CCITT_FALSE,
	crc16.CRC16_CDMA2000,
	crc16.CRC16_DDS_110,
	crc16.CRC16_DECT_R,
	crc16.CRC16_DECT_X,
	crc16.CRC16_DNP,
	crc16.CRC16_EN_13757,
	crc16.CRC16_GENIBUS,
	crc16.CRC16_MAXIM,
	crc16.CRC16_MCRF4XX,
	crc16.CRC16_RIELLO,
	crc16.CRC16_T10_DIF,
	crc16.CRC16_TELEDISK,
	crc16.CRC16_TMS37157,
	crc16.CRC16_USB,
	crc16.CRC16_CRC_A,
	crc16.CRC16_KERMIT,
	crc16.CRC16_MODBUS,
	crc16.CRC16_X_25,
	crc16.CRC16_XMODEM,
}

var crc8Params = []crc8.Params{
	crc8.CRC8,
	crc8.CRC8_CDMA2000,
	crc8.CRC8_DARC,
	crc8.CRC8_DVB_S2,
	crc8.CRC8_EBU,
	crc8.CRC8_I_CODE,
	crc8.CRC8_ITU,
	crc8.CRC8_MAXIM,
	crc8.CRC8_ROHC,
	crc8.CRC8_WCDMA,
}

var catalogue = buildCatalogue()

// FromCRC16 converts a sigurn CRC-16 parameter set into a Profile.
func FromCRC16(p crc16.Params) Profile {
	return Profile{
		Name:   p.Name,
		Width:  16,
		Poly:   p.Poly,
		Init:   p.Init,
		RefIn:  p.RefIn,
		RefOut: p.RefOut,
		XorOut: p.XorOut,
		Check:  p.Check,
	}
}

// FromCRC8 converts a sigurn CRC-8 parameter set into a Profile.
func FromCRC8(p crc8.Params) Profile {
	return Profile{
		Name:   p.Name,
		Width:  8,
		Poly:   uint16(p.Poly),
		Init:   uint16(p.Init),
		RefIn:  p.RefIn,
		RefOut: p.RefOut,
		XorOut: uint16(p.XorOut),
		Check:  uint16(p.Check),
	}
}

func buildCatalogue() map[string]Profile {
	out := make(map[string]Profile, len(crc16Params)+len(crc8Params))
	for _, p := range crc16Params {
		out[p.Name] = FromCRC16(p)
	}
	for _, p := range crc8Params {
		out[p.Name] = FromCRC8(p)
	}
	return out
}

// Lookup returns the named standard profile, e.g. "CRC-16/MODBUS".
func Lookup(name string) (Profile, bool) {
	p, ok := catalogue[name]
	return p, ok
}

// Profiles lists every catalogued profile ordered by name.
func Profiles() []Profile {
	out := make([]Profile, 0, len(catalogue))
	for _, p := range catalogue {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
