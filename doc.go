// Package pcd8544 controls a PCD8544 LCD display (Nokia 5110/3310) via SPI.
//
// The PCD8544 is a monochrome 84×48 LCD controller. Its memory is organized
// in six horizontal pages of 8 pixel rows; every data byte is one column of a
// page, least significant bit at the top. This driver implements the
// display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 1-bit monochrome, 84×48 pixels
// - 504 bytes of display memory with an auto-incrementing write address
// - Adjustable operating voltage (contrast, 0-127)
// - Display inversion
// - Active-low LED backlight on most breakout boards
//
// # Hardware Connection
//
// Connect the display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	CLK         → SPI Clock (SCLK)
//	DIN         → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CE          → SPI Chip Select
//	RST         → GPIO for hardware reset
//	LIGHT       → Optional: GPIO for the backlight
//
// # Basic Usage
//
// On a Raspberry Pi, Open takes care of periph.io initialization and resolves
// header pin numbers:
//
//	dev, err := pcd8544.Open(&pcd8544.Opts{
//		Channel: 0,
//		Pins:    pcd8544.Pins{DC: 18, Reset: 22, LED: 13},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Halt()
//
//	dev.DrawString(0, 0, []byte("Hello"), false)
//	dev.DrawText(0, 2, "Nokia", true)
//
// On other hosts, open the bus and pins yourself and use NewSPI:
//
//	host.Init()
//	p, _ := spireg.Open("")
//	dev, _ := pcd8544.NewSPI(p, gpioreg.ByName("GPIO24"), &pcd8544.Opts{
//		RST: gpioreg.ByName("GPIO25"),
//	})
//
// # Drawing
//
// Pixels, text and fills are written straight to the display and mirrored in
// a shadow buffer, so Pixel never talks to the hardware:
//
//	dev.SetPixel(10, 20, true)
//	on := dev.Pixel(10, 20)
//	dev.Fill(0x00)
//
// Images go through Draw, which only sends the changed columns of each page:
//
//	img := image1bit.NewVerticalLSB(dev.Bounds())
//	img.SetBit(42, 24, image1bit.On)
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// Write sends a raw 504-byte frame in display memory order.
//
// # Text
//
// Two fonts are built in: 8×8 glyphs, ten per page row, and 16×24 glyphs
// spanning three pages, five per row. Glyphs that would run past the right
// edge are dropped. A different 8×8 font can be loaded from a PSF console
// font with font.LoadPSF.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/Monochrome/Nokia5110.pdf
package pcd8544
