package gallery

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/crypto"
)

func testStore(t *testing.T, sealer *crypto.Sealer) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gallery.db"), sealer)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPhoto(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{255, 0, 0, 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return DataURL("image/jpeg", buf.Bytes())
}

func TestSaveAllocatesUniqueIDs(t *testing.T) {
	s := testStore(t, nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		id, err := s.Save(Item{Type: Photo, Data: "data:image/jpeg;base64,"})
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}

	if !seen[fixed.UnixNano()/int64(time.Millisecond)] {
		t.Error("expected the first id to be the creation time in milliseconds")
	}
}

func TestSaveGetDelete(t *testing.T) {
	s := testStore(t, nil)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.Save(Item{Type: Video, Data: "data:video/webm;base64,AAAA", Timestamp: ts, Zoom: 2.5})
	if err != nil {
		t.Fatal(err)
	}

	item, err := s.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != id || item.Type != Video || item.Data != "data:video/webm;base64,AAAA" || item.Zoom != 2.5 {
		t.Errorf("unexpected item %+v", item)
	}
	if !item.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %s got %s", ts, item.Timestamp)
	}

	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound got %v", err)
	}
	if err := s.Delete(id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound got %v", err)
	}
}

func TestSaveInvalidType(t *testing.T) {
	s := testStore(t, nil)
	if _, err := s.Save(Item{Type: "gif"}); err != ErrInvalidType {
		t.Errorf("expected ErrInvalidType got %v", err)
	}
	if _, err := s.List("gif"); err != ErrInvalidType {
		t.Errorf("expected ErrInvalidType got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t, nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []Item{
		{Type: Photo, Data: "a", Timestamp: base},
		{Type: Video, Data: "b", Timestamp: base.Add(time.Minute)},
		{Type: Photo, Data: "c", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, item := range items {
		if _, err := s.Save(item); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Data != "c" || all[1].Data != "b" || all[2].Data != "a" {
		t.Errorf("unexpected order %+v", all)
	}

	photos, err := s.List(Photo)
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 2 || photos[0].Data != "c" || photos[1].Data != "a" {
		t.Errorf("unexpected photos %+v", photos)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 got %d", n)
	}
}

func TestReopenKeepsIDsIncreasing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	s.now = func() time.Time { return future }
	first, err := s.Save(Item{Type: Photo, Data: "a"})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	second, err := s.Save(Item{Type: Photo, Data: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Errorf("expected %d > %d", second, first)
	}
}

func TestSealedPayload(t *testing.T) {
	sealer, err := crypto.NewSealer([]byte("hunter2"), crypto.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	s := testStore(t, sealer)
	id, err := s.Save(Item{Type: Photo, Data: "data:image/jpeg;base64,secret"})
	if err != nil {
		t.Fatal(err)
	}

	var raw []byte
	if err := s.db.QueryRow("SELECT data FROM media WHERE id = ?", id).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("secret")) {
		t.Error("payload stored in plain text")
	}

	item, err := s.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if item.Data != "data:image/jpeg;base64,secret" {
		t.Errorf("unexpected data %q", item.Data)
	}
}

func TestThumbnail(t *testing.T) {
	s := testStore(t, nil)
	id, err := s.Save(Item{Type: Photo, Data: testPhoto(t, 640, 480)})
	if err != nil {
		t.Fatal(err)
	}

	img, err := s.Thumbnail(id, 100)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 75 {
		t.Errorf("expected 100x75 got %dx%d", b.Dx(), b.Dy())
	}

	vid, err := s.Save(Item{Type: Video, Data: "data:video/webm;base64,AAAA"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Thumbnail(vid, 100); err != ErrNoThumbnail {
		t.Errorf("expected ErrNoThumbnail got %v", err)
	}
}

func TestDataURL(t *testing.T) {
	u := DataURL("image/jpeg", []byte{1, 2, 3})
	mime, payload, err := DecodeDataURL(u)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/jpeg" || !bytes.Equal(payload, []byte{1, 2, 3}) {
		t.Errorf("unexpected %s %v", mime, payload)
	}

	for _, bad := range []string{"", "image/jpeg;base64,AAAA", "data:image/jpeg,AAAA"} {
		if _, _, err := DecodeDataURL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
