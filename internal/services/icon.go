package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

const iconSize = 512

// iconPalette backs the generated placeholder icons. The color for an app
// is derived from its id, so regeneration is stable.
var iconPalette = []color.NRGBA{
	{R: 0x4C, G: 0x6E, B: 0xF5, A: 0xFF},
	{R: 0x0C, G: 0xA6, B: 0x78, A: 0xFF},
	{R: 0xE8, G: 0x59, B: 0x0C, A: 0xFF},
	{R: 0x9C, G: 0x36, B: 0xB5, A: 0xFF},
	{R: 0xE0, G: 0x31, B: 0x31, A: 0xFF},
	{R: 0x10, G: 0x98, B: 0xAD, A: 0xFF},
	{R: 0xF0, G: 0x8C, B: 0x00, A: 0xFF},
	{R: 0x37, G: 0x41, B: 0x51, A: 0xFF},
}

// IconService renders placeholder icons for applications that ship without
// one and processes developer-uploaded icon images. Files land under
// MEDIA_DIR and are served from /media.
type IconService interface {
	Render(appID, name string) (string, error)
	SaveUploaded(appID string, raw []byte) (string, error)
}

type iconService struct {
	log      *logger.Logger
	mediaDir string
	fontFace font.Face
}

func NewIconService(log *logger.Logger) (IconService, error) {
	serviceLog := log.With("service", "IconService")

	mediaDir := strings.TrimSpace(os.Getenv("MEDIA_DIR"))
	if mediaDir == "" {
		return nil, fmt.Errorf("Env var MEDIA_DIR is empty")
	}
	if err := os.MkdirAll(filepath.Join(mediaDir, "app_icons"), 0o755); err != nil {
		return nil, fmt.Errorf("could not create icon directory: %w", err)
	}

	fontPath := strings.TrimSpace(os.Getenv("ICON_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var ICON_FONT is empty")
	}
	serviceLog.Info("Loading icon font", "font", fontPath)

	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load icon font: %w", err)
	}

	return &iconService{
		log:      serviceLog,
		mediaDir: mediaDir,
		fontFace: face,
	}, nil
}

// Render draws an initials icon on a deterministic background and writes it
// to the media directory, returning the public path.
func (s *iconService) Render(appID, name string) (string, error) {
	dc := gg.NewContext(iconSize, iconSize)

	dc.DrawRoundedRectangle(0, 0, iconSize, iconSize, iconSize/5)
	dc.Clip()

	dc.SetColor(iconColor(appID))
	dc.DrawRectangle(0, 0, iconSize, iconSize)
	dc.Fill()

	initials := iconInitials(name)
	dc.SetFontFace(s.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(iconSize)/2, float64(iconSize)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2), cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return s.write(appID, buf.Bytes())
}

// SaveUploaded center-crops, resizes and rounds a developer-provided icon.
func (s *iconService) SaveUploaded(appID string, raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", types.NewError(types.CodeValidation, "icon.save_uploaded", "unreadable image", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(iconSize, iconSize)
	dc.DrawRoundedRectangle(0, 0, iconSize, iconSize, iconSize/5)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return s.write(appID, buf.Bytes())
}

func (s *iconService) write(appID string, data []byte) (string, error) {
	rel := filepath.Join("app_icons", appID+".png")
	if err := os.WriteFile(filepath.Join(s.mediaDir, rel), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write icon: %w", err)
	}
	return "/media/" + filepath.ToSlash(rel), nil
}

func iconColor(appID string) color.NRGBA {
	hash := fnv.New32a()
	hash.Write([]byte(appID))
	return iconPalette[hash.Sum32()%uint32(len(iconPalette))]
}

func iconInitials(name string) string {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "?"
	case 1:
		return firstRuneUpper(fields[0])
	default:
		return firstRuneUpper(fields[0]) + firstRuneUpper(fields[1])
	}
}

// firstRuneUpper slices by rune, not byte, so multi-byte names keep a
// valid initial.
func firstRuneUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r))
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
