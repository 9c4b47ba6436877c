// Command intaked runs the background document ingest daemon. It owns the
// queue, the upload scheduler, the watch directory poller, and the unix
// socket the intake CLI connects to.
package main
