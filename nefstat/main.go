// Command nefstat decodes a Nikon NEF raw file into a 16-bit PGM.
//
//	nefstat [-v] [-thumb out.jpg] input.nef output.pgm
//
// Exit status is 0 on success, 1 if the NEF could not be parsed, and
// 2 on I/O failure.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Lemminkyinen/read-nef/nef"
)

var (
	verbose   = flag.Bool("v", false, "dump the IFD graph before decoding")
	thumbPath = flag.String("thumb", "", "also write the embedded JPEG thumbnail to this path")
)

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: nefstat [-v] [-thumb out.jpg] input.nef output.pgm\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	input, output := flag.Arg(0), flag.Arg(1)

	buf, err := os.ReadFile(input)
	if err != nil {
		log.Printf("nefstat: %v", err)
		os.Exit(2)
	}

	f, err := nef.Parse(buf)
	if err != nil {
		log.Printf("nefstat: %s: %v", input, err)
		os.Exit(1)
	}
	if *verbose {
		dumpIfds(f, buf)
		m := f.Metadata()
		fmt.Printf("---- %s %s ----\n", m.Make, m.Model)
		fmt.Printf("    taken %v, ISO %d, %gs at f/%g\n",
			m.CreateDate, m.ISOSpeed, m.ExposureTime, m.FNumber)
	}

	img, err := f.DecodeRaw()
	if err != nil {
		log.Printf("nefstat: %s: %v", input, err)
		os.Exit(1)
	}

	if *thumbPath != "" {
		jpg, err := f.Thumbnail()
		if err != nil {
			log.Printf("nefstat: %s: %v", input, err)
			os.Exit(1)
		}
		if err := os.WriteFile(*thumbPath, jpg, 0666); err != nil {
			log.Printf("nefstat: %v", err)
			os.Exit(2)
		}
	}

	if err := writePGM(output, img); err != nil {
		log.Printf("nefstat: %v", err)
		os.Exit(2)
	}
}

func dumpIfds(f *nef.File, buf []byte) {
	for i, d := range f.Ifds {
		fmt.Printf("---- IFD %d (%s, base %d) ----\n", i, d.Kind, d.BaseOffset)
		for _, e := range d.Entries {
			fmt.Printf("    %s\n", e.Describe(buf))
		}
	}
}

// writePGM writes the sample plane as a binary P5 PGM with 16-bit
// big-endian samples.
func writePGM(path string, img *nef.RawImage) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "P5\n%d %d\n65535\n", img.Width, img.Height)
	var b [2]byte
	for _, s := range img.Samples {
		binary.BigEndian.PutUint16(b[:], s)
		if _, err := w.Write(b[:]); err != nil {
			out.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
