package binutil

import "github.com/sigurn/crc16"

// en13757Params describes the EN 13757 CRC-16 used on every DLL/TPL frame
// boundary: polynomial 0x3D65, initial value 0x0000, MSB-first (not
// reflected), final XOR 0xFFFF. Grounded on the polynomial table approach
// NotCoffee418-european_smart_meter uses for its own (ARC) checksum via
// github.com/sigurn/crc16.MakeTable/Checksum.
var en13757Params = crc16.Params{
	Poly:   0x3D65,
	Init:   0x0000,
	RefIn:  false,
	RefOut: false,
	XorOut: 0xFFFF,
	Check:  0xC2B7,
	Name:   "CRC-16/EN-13757",
}

var en13757Table = crc16.MakeTable(en13757Params)

// CRC16EN13757 computes the EN 13757 CRC-16 over data.
func CRC16EN13757(data []byte) uint16 {
	return crc16.Checksum(data, en13757Table)
}
