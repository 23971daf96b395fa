package loom

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
)

// SnapshotFilter restricts which tables a Snapshot includes. A nil
// filter includes every table.
type SnapshotFilter func(t *Table) bool

const snapshotMagic = "LOOMSNAP"

// Snapshot produces a deep byte image of the main stage, restricted by
// filter (§6's persisted-state contract: {entity_index, tables,
// last_handle, filter}). The image is zstd-compressed.
func (w *World) Snapshot(filter SnapshotFilter) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	writeUvarint(&buf, w.nextHandle)

	tables := w.tables
	if filter != nil {
		filtered := make([]*Table, 0, len(tables))
		for _, t := range tables {
			if filter(t) {
				filtered = append(filtered, t)
			}
		}
		tables = filtered
	}

	writeUvarint(&buf, uint64(len(tables)))
	for _, t := range tables {
		writeTable(&buf, t)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(Config.SnapshotLevel)))
	if err != nil {
		return nil, wrapError(Internal, err, "snapshot: create zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

func writeTable(buf *bytes.Buffer, t *Table) {
	ids := t.typ.IDs()
	writeUvarint(buf, uint64(len(ids)))
	for _, id := range ids {
		writeUvarint(buf, uint64(id))
	}
	writeUvarint(buf, uint64(t.Len()))
	for row := 0; row < t.Len(); row++ {
		writeUvarint(buf, uint64(t.main.entities[row]))
		for i := range ids {
			col := t.main.columns[i]
			buf.Write(col.slot(row))
		}
	}
}

// Restore populates w (expected fresh, with every component already
// registered in the same order as the world that produced data) from
// a Snapshot image.
func (w *World) Restore(data []byte) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return wrapError(Internal, err, "snapshot: create zstd decoder")
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return wrapError(Internal, err, "snapshot: decompress")
	}

	r := bytes.NewReader(raw)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != snapshotMagic {
		return newError(Internal, "snapshot: bad magic header")
	}
	lastHandle, err := binary.ReadUvarint(r)
	if err != nil {
		return wrapError(Internal, err, "snapshot: read last handle")
	}
	w.nextHandle = lastHandle

	tableCount, err := binary.ReadUvarint(r)
	if err != nil {
		return wrapError(Internal, err, "snapshot: read table count")
	}

	for i := uint64(0); i < tableCount; i++ {
		if err := w.readTable(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) readTable(r *bytes.Reader) error {
	idCount, err := binary.ReadUvarint(r)
	if err != nil {
		return wrapError(Internal, err, "snapshot: read type length")
	}
	ids := make([]ComponentID, idCount)
	for i := range ids {
		v, err := binary.ReadUvarint(r)
		if err != nil {
			return wrapError(Internal, err, "snapshot: read component id")
		}
		ids[i] = ComponentID(v)
	}
	handle := w.trie.Intern(ids)
	t := w.getOrCreateTable(handle)

	rowCount, err := binary.ReadUvarint(r)
	if err != nil {
		return wrapError(Internal, err, "snapshot: read row count")
	}
	for row := uint64(0); row < rowCount; row++ {
		eid, err := binary.ReadUvarint(r)
		if err != nil {
			return wrapError(Internal, err, "snapshot: read entity id")
		}
		e := Entity(eid)
		newRow := t.appendRaw(w.mainStage, e)
		for _, id := range ids {
			col := t.columnFor(id)
			if col == nil || col.size == 0 {
				continue
			}
			if _, err := io.ReadFull(r, col.slot(newRow)); err != nil {
				return wrapError(Internal, err, "snapshot: read component bytes")
			}
		}
		w.mainStage.index.set(e, newRecord(t, int32(newRow)))
	}
	w.onTableDirty(t)
	return nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}
