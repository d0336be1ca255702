package framing

// BytesCodec passes bytes through unchanged: every Decode returns whatever
// is buffered as one frame.
type BytesCodec struct{}

func (BytesCodec) Decode(src *Buffer) ([]byte, bool, error) {
	if src.Len() == 0 {
		return nil, false, nil
	}
	return src.Split(src.Len()), true, nil
}

func (BytesCodec) Encode(item []byte, dst *Buffer) error {
	_, err := dst.Write(item)
	return err
}

// PrepareSkipAhead never has to skip anything since Decode never leaves bytes
// behind.
func (BytesCodec) PrepareSkipAhead(*Buffer) SkipAhead { return SkipNothing }
