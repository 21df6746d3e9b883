// Package hw provides the reference host hardware for translated real-mode
// programs. Headless emulates the VGA DAC and status ports, a keyboard
// queue, and the video, keyboard and DOS interrupt services, and captures
// the frames the guest delivers.
package hw
