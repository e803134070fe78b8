package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/config"
	"github.com/frizinak/inbetween-go-zoomcam/crypto"
	"github.com/frizinak/inbetween-go-zoomcam/gallery"
)

func main() {
	l := log.New(os.Stderr, "", 0)
	def, err := config.DefaultConfigFile()
	if err != nil {
		l.Fatal(err)
	}

	file := flag.String("c", def, "Config file")
	list := flag.Bool("list", false, "List gallery items, newest first")
	typ := flag.String("type", "", "Only list items of this type (photo|video)")
	asJSON := flag.Bool("json", false, "List as json, including payloads")
	export := flag.Int64("export", 0, "Write the payload of the item with this id to -o")
	thumb := flag.Int64("thumb", 0, "Write a png thumbnail of the photo with this id to -o")
	del := flag.Int64("delete", 0, "Delete the item with this id")
	out := flag.String("o", "", "Output file")
	flag.Parse()

	conf, err := config.LoadConfig(*file)
	if err != nil {
		l.Fatal(err)
	}

	var sealer *crypto.Sealer
	if conf.Gallery.Passphrase != "" {
		sealer, err = crypto.NewSealer([]byte(conf.Gallery.Passphrase), conf.Gallery.Cost)
		if err != nil {
			l.Fatal(err)
		}
	}

	store, err := gallery.Open(conf.Gallery.Path, sealer)
	if err != nil {
		l.Fatal(err)
	}
	defer store.Close()

	output := func() *os.File {
		if *out == "" {
			l.Fatal("No output file given (-o)")
		}
		f, err := os.Create(*out)
		if err != nil {
			l.Fatal(err)
		}
		return f
	}

	switch {
	case *list:
		items, err := store.List(gallery.MediaType(*typ))
		if err != nil {
			l.Fatal(err)
		}

		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "    ")
			if err := enc.Encode(items); err != nil {
				l.Fatal(err)
			}
			return
		}

		for _, item := range items {
			mime, payload, _ := gallery.DecodeDataURL(item.Data)
			fmt.Printf(
				"%d\t%s\t%s\t%.1fx\t%dkB\t%s\n",
				item.ID,
				item.Type,
				item.Timestamp.Local().Format(time.RFC3339),
				item.Zoom,
				len(payload)/1024,
				mime,
			)
		}

	case *export != 0:
		item, err := store.Get(*export)
		if err != nil {
			l.Fatal(err)
		}
		_, payload, err := gallery.DecodeDataURL(item.Data)
		if err != nil {
			l.Fatal(err)
		}
		f := output()
		defer f.Close()
		if _, err := f.Write(payload); err != nil {
			l.Fatal(err)
		}

	case *thumb != 0:
		img, err := store.Thumbnail(*thumb, conf.Gallery.ThumbnailSize)
		if err != nil {
			l.Fatal(err)
		}
		f := output()
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			l.Fatal(err)
		}

	case *del != 0:
		if err := store.Delete(*del); err != nil {
			l.Fatal(err)
		}

	default:
		flag.Usage()
		os.Exit(1)
	}
}
