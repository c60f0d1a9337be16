// Command webrtc-preview serves a low-latency H.264 preview of the
// camera over WebRTC. The Jetson's hardware encoder sends RTP to a
// loopback port; every browser that posts an SDP offer gets the shared
// stream back. Use this instead of the MJPEG feed when latency matters.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/video"
)

func main() {
	addr := flag.String("addr", ":5001", "Listen address")
	rtpPort := flag.Int("rtp-port", video.DefaultRTPPort, "Loopback RTP ingest port")
	width := flag.Int("width", video.DefaultWidth, "Capture width")
	height := flag.Int("height", video.DefaultHeight, "Capture height")
	framerate := flag.Int("framerate", video.DefaultFramerate, "Capture framerate")
	bitrate := flag.Int("bitrate", video.DefaultBitrate, "Encoder bitrate (bps)")
	sensorID := flag.Int("sensor", 0, "CSI sensor id")
	noPipeline := flag.Bool("no-pipeline", false, "Skip the encoder pipeline (external RTP source)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log.Init(*logLevel)

	streamer, err := video.NewStreamer(*rtpPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "streamer: %v\n", err)
		os.Exit(1)
	}
	defer streamer.Close()

	if !*noPipeline {
		cfg := video.DefaultPipelineConfig(streamer.Port())
		cfg.SensorID = *sensorID
		cfg.Width = *width
		cfg.Height = *height
		cfg.Framerate = *framerate
		cfg.Bitrate = *bitrate

		pipeline := video.NewPipeline(cfg)
		if err := pipeline.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "encoder pipeline: %v\n", err)
			fmt.Fprintln(os.Stderr, "(use --no-pipeline to feed RTP from elsewhere)")
			os.Exit(1)
		}
		defer pipeline.Stop()
	}

	fmt.Println("📡 JetBot WebRTC Preview")
	fmt.Printf("   Encoder: %dx%d@%d %dkbps -> rtp/127.0.0.1:%d\n",
		*width, *height, *framerate, *bitrate/1000, streamer.Port())
	fmt.Printf("   Viewer:  http://localhost%s\n", *addr)
	fmt.Println()

	app := fiber.New(fiber.Config{
		AppName:               "JetBot WebRTC Preview",
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(playerHTML)
	})

	app.Post("/offer", func(c *fiber.Ctx) error {
		var offer webrtc.SessionDescription
		if err := c.BodyParser(&offer); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid offer: "+err.Error())
		}
		answer, err := streamer.Offer(uuid.NewString(), offer)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(answer)
	})

	go func() {
		if err := app.Listen(*addr); err != nil {
			log.Error("listen failed", "err", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Shutting down...")
	app.Shutdown()
}

const playerHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>JetBot WebRTC Preview</title>
<style>
  body { margin: 0; background: #111; color: #eee; font-family: sans-serif; }
  video { display: block; width: 100vw; height: auto; }
  #status { position: fixed; top: 8px; left: 8px; opacity: 0.7; }
</style>
</head>
<body>
<div id="status">connecting…</div>
<video id="video" autoplay playsinline muted></video>
<script>
const status = document.getElementById('status');
const pc = new RTCPeerConnection();
pc.addTransceiver('video', { direction: 'recvonly' });
pc.ontrack = (ev) => { document.getElementById('video').srcObject = ev.streams[0]; };
pc.onconnectionstatechange = () => { status.textContent = pc.connectionState; };

(async () => {
  const offer = await pc.createOffer();
  await pc.setLocalDescription(offer);
  await new Promise((resolve) => {
    if (pc.iceGatheringState === 'complete') return resolve();
    pc.onicegatheringstatechange = () => {
      if (pc.iceGatheringState === 'complete') resolve();
    };
  });
  const resp = await fetch('/offer', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(pc.localDescription),
  });
  if (!resp.ok) { status.textContent = 'offer failed: ' + resp.status; return; }
  await pc.setRemoteDescription(await resp.json());
})();
</script>
</body>
</html>
`
