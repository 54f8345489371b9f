package h5lite

import (
	"fmt"
	"math"
	"strings"

	"github.com/dream3d/h5support/hdf5"
)

// StringsCodec stores a list of strings as one string dataset holding the
// entries joined by Delimiter, with an int32 attribute CountAttr on the
// dataset recording the number of entries.
type StringsCodec struct {
	Delimiter byte
	CountAttr string
}

// Codecs for the list conventions found in existing files.
var (
	DefaultStringsCodec = StringsCodec{Delimiter: '\n', CountAttr: "NumStrings"}
	ArrayListCodec      = StringsCodec{Delimiter: '\n', CountAttr: "NumArrays"}
	InputListCodec      = StringsCodec{Delimiter: '\n', CountAttr: "NumInputs"}
)

// Write stores values as the dataset name under parent. Entries may not
// contain the delimiter or a NUL byte.
func (c StringsCodec) Write(parent *hdf5.Group, name string, values []string) error {
	o := begin("WriteStrings", objectPath(parent, name))
	c.write(o, parent, name, values)
	return o.end()
}

func (c StringsCodec) write(o *op, parent *hdf5.Group, name string, values []string) {
	if len(values) > math.MaxInt32 {
		o.fail("check entries", InvalidArgument, fmt.Errorf("%d entries do not fit the count attribute", len(values)))
		return
	}
	for i, v := range values {
		if strings.IndexByte(v, c.Delimiter) >= 0 {
			o.fail("check entries", InvalidArgument, fmt.Errorf("entry %d contains the delimiter %q", i, c.Delimiter))
			return
		}
	}
	writeString(o, parent, name, strings.Join(values, string(c.Delimiter)))
	if o.failed() {
		return
	}
	writeValuesAttr(o, parent, name, c.CountAttr, []int32{int32(len(values))})
}

// Read returns the list stored by Write. The count attribute must agree
// with the number of entries in the payload.
func (c StringsCodec) Read(parent *hdf5.Group, name string) ([]string, error) {
	o := begin("ReadStrings", objectPath(parent, name))
	values := c.read(o, parent, name)
	return values, o.end()
}

func (c StringsCodec) read(o *op, parent *hdf5.Group, name string) []string {
	payload := readString(o, parent, name)
	if o.failed() {
		return nil
	}
	var count [1]int64
	readValuesAttr(o, parent, name, c.CountAttr, func(n uint64) ([]int64, error) {
		if n != 1 {
			return nil, fmt.Errorf("count attribute holds %d elements, not 1", n)
		}
		return count[:], nil
	})
	if o.failed() {
		return nil
	}
	if count[0] == 0 {
		if payload != "" {
			o.fail("split entries", ShapeMismatch, fmt.Errorf("count is 0 but the payload is %d bytes", len(payload)))
			return nil
		}
		return []string{}
	}
	values := strings.Split(payload, string(c.Delimiter))
	if int64(len(values)) != count[0] {
		o.fail("split entries", ShapeMismatch, fmt.Errorf("%d entries, count attribute says %d", len(values), count[0]))
		return nil
	}
	return values
}
