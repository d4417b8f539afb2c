package sdidec

import "github.com/mediabridge/sdiip/internal/sdiline"

// Audio-group DIDs: HD carries the group on E7..E4 (group 0 = E7), SD on
// FF/FD/FB/F9.
var audioGroupDIDsHD = [4]uint16{0xE7, 0xE6, 0xE5, 0xE4}
var audioGroupDIDsSD = [4]uint16{0xFF, 0xFD, 0xFB, 0xF9}

// parseANC scans a HANC region for ANC packets: it locates each packet's
// ADF, decodes it via sdiline.ParsePacket, validates checksum/DBN/ECC, and
// routes audio-group payload into the audio assembler.
func (d *Decoder) parseANC(words []uint16, hd bool, audio *audioAssembler) {
	for len(words) > 0 {
		adfAt := findADF(words, hd)
		if adfAt < 0 {
			return
		}
		words = words[adfAt:]

		pkt, consumed, ok := sdiline.ParsePacket(words, hd)
		if !ok {
			return
		}
		words = words[consumed:]

		if !pkt.ChecksumOK {
			d.Log.Warn("sdidec: ANC checksum mismatch", "did", pkt.DID)
			continue
		}

		if group, isAudio := audioGroup(pkt.DID, hd); isAudio {
			d.decodeAudioGroup(group, pkt, audio)
			continue
		}

		if sdiline.Type1DID(pkt.DID) {
			expected := d.dbn[pkt.DID]
			next, ok := sdiline.ValidateDBN(expected, uint8(pkt.SDIDorDBN))
			if !ok && expected != 0 {
				d.Log.Warn("sdidec: ANC DBN gap", "did", pkt.DID, "expected", expected, "got", pkt.SDIDorDBN)
			}
			d.dbn[pkt.DID] = next
		}
	}
}

// findADF returns the offset of the next ADF pattern in words, or -1 if
// none remains.
func findADF(words []uint16, hd bool) int {
	adf := sdiline.ADFSD[:]
	if hd {
		adf = sdiline.ADFHD[:]
	}
	for i := 0; i+len(adf) <= len(words); i++ {
		match := true
		for j, w := range adf {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func audioGroup(did uint16, hd bool) (group int, ok bool) {
	table := audioGroupDIDsSD
	if hd {
		table = audioGroupDIDsHD
	}
	for i, d := range table {
		if d == did {
			return i, true
		}
	}
	return 0, false
}

// decodeAudioGroup extracts the 4 samples x 4 channels payload of an
// audio-data packet. Audio-control packets (shorter UDW, carrying a
// 13-bit clock phase and MPF bit for phase monitoring) are recognized and
// skipped rather than misread as sample data.
func (d *Decoder) decodeAudioGroup(group int, pkt sdiline.Packet, audio *audioAssembler) {
	if len(pkt.UDW) < 12 {
		return
	}
	if !checkAudioECC(pkt) {
		d.Log.Warn("sdidec: audio data packet ECC mismatch", "group", group)
	}
	var samples [4]int32
	for s := 0; s < 4; s++ {
		base := s * 3
		if base+2 >= len(pkt.UDW) {
			break
		}
		samples[s] = assembleAudioSample(pkt.UDW[base], pkt.UDW[base+1], pkt.UDW[base+2])
	}
	audio.appendGroup(group, samples)
}

// checkAudioECC verifies the 6-byte ECC trailer carried in the low bytes
// of the packet's last 6 UDW words, if present.
func checkAudioECC(pkt sdiline.Packet) bool {
	if len(pkt.UDW) < 18 {
		return true
	}
	body := pkt.UDW[:len(pkt.UDW)-6]
	bodyBytes := make([]byte, len(body))
	for i, w := range body {
		bodyBytes[i] = byte(w & 0xff)
	}
	want := sdiline.ComputeECC(bodyBytes)
	for i := 0; i < 6; i++ {
		if byte(pkt.UDW[len(pkt.UDW)-6+i]&0xff) != want[i] {
			return false
		}
	}
	return true
}

// assembleAudioSample reconstructs one audio sample from its 3 ANC
// user-data words, each carrying 8 payload bits (bits 0-7), shifted left
// by 12 into a 32-bit S32 sample.
func assembleAudioSample(w0, w1, w2 uint16) int32 {
	v := uint32(w0&0xff) | uint32(w1&0xff)<<8 | uint32(w2&0xff)<<16
	v <<= 12
	return int32(v)
}
