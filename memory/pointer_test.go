package memory_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/autosplit/memory"
)

var _ = Describe("PointerPath", func() {
	var storage *memory.Storage

	writePtr32 := func(addr uint64, v uint32) {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, v)
		Expect(storage.Write(addr, buf)).To(Succeed())
	}

	BeforeEach(func() {
		storage = memory.NewStorage(1 << 32)
	})

	It("should treat a single offset as a direct address", func() {
		Expect(storage.Write(0x401000, []byte{7})).To(Succeed())

		path := memory.PointerPath{Base: 0x400000, Offsets: []uint64{0x1000}}
		buf := make([]byte, 1)

		Expect(memory.ReadPointerPath(storage, path, memory.Bit32, buf)).
			To(Succeed())
		Expect(buf[0]).To(Equal(byte(7)))
	})

	It("should dereference every hop but the last", func() {
		writePtr32(0x400010, 0x500000)
		writePtr32(0x500004, 0x600000)
		Expect(storage.Write(0x600008, []byte{3})).To(Succeed())

		path := memory.PointerPath{
			Base:    0x400000,
			Offsets: []uint64{0x10, 0x4, 0x8},
		}

		addr, err := path.Address(storage, memory.Bit32)
		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal(uint64(0x600008)))

		buf := make([]byte, 1)
		Expect(memory.ReadPointerPath(storage, path, memory.Bit32, buf)).
			To(Succeed())
		Expect(buf[0]).To(Equal(byte(3)))
	})

	It("should read 64-bit pointers", func() {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, 0x7000)
		Expect(storage.Write(0x100, buf)).To(Succeed())

		ptr, err := memory.ReadPointer(storage, 0x100, memory.Bit64)
		Expect(err).NotTo(HaveOccurred())
		Expect(ptr).To(Equal(uint64(0x7000)))
	})

	It("should fail when a hop is unmapped", func() {
		path := memory.PointerPath{Base: 0x400000, Offsets: []uint64{0x10, 0x4}}

		err := memory.ReadPointerPath(storage, path, memory.Bit32, make([]byte, 1))
		Expect(err).To(MatchError(memory.ErrUnmapped))
	})
})

var _ = Describe("Values", func() {
	It("should decode C strings up to the first NUL", func() {
		Expect(memory.DecodeCString([]byte{'L', '1', 0, 'x'})).To(Equal("L1"))
		Expect(memory.DecodeCString([]byte{'L', '2'})).To(Equal("L2"))
		Expect(memory.DecodeCString([]byte{0, 0})).To(BeEmpty())
	})

	It("should round trip integers", func() {
		for _, k := range []memory.Kind{
			memory.KindU8, memory.KindU16, memory.KindU32, memory.KindU64,
		} {
			buf := memory.EncodeUint(k, 0x7f)
			Expect(buf).To(HaveLen(k.Size(0)))
			Expect(memory.DecodeUint(k, buf)).To(Equal(uint64(0x7f)))
		}
	})

	It("should parse kind names", func() {
		k, err := memory.ParseKind("CString")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(memory.KindCString))

		_, err = memory.ParseKind("f32")
		Expect(err).To(HaveOccurred())
	})
})
